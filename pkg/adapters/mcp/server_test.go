package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/brokerdesk/pkg/adapters/memory"
	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/identity"
	"github.com/aretw0/brokerdesk/pkg/pipeline"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Server, *domain.Client) {
	t.Helper()
	store := memory.NewStore()
	registry := stage.NewDefaultRegistry()
	pipe := pipeline.NewService(store, registry, pipeline.WithIdentity(identity.Context{}))
	t.Cleanup(func() { _ = pipe.Wait(context.Background()) })
	cs := clients.NewService(store, registry)

	c, err := cs.Create(context.Background(), "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Joshua Burt"},
	})
	require.NoError(t, err)

	return NewServer(pipe, cs, WithVersion("test")), c
}

func TestListStages(t *testing.T) {
	s, _ := setup(t)

	resp, err := s.handleListStages(context.Background(), mcp.CallToolRequest{}, StagesArgs{})
	require.NoError(t, err)
	assert.Equal(t, stage.DisabilityServicesID, resp.PipelineID)
	require.Len(t, resp.Stages, 6)
	assert.Equal(t, domain.StageLeadIntake, resp.Stages[0].ID)

	_, err = s.handleListStages(context.Background(), mcp.CallToolRequest{}, StagesArgs{PipelineID: "nope"})
	assert.ErrorIs(t, err, domain.ErrPipelineNotFound)
}

func TestGetBoard(t *testing.T) {
	s, c := setup(t)

	resp, err := s.handleGetBoard(context.Background(), mcp.CallToolRequest{}, BoardArgs{OrgID: "org-1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Columns)
	require.Len(t, resp.Columns[0].Clients, 1)
	assert.Equal(t, c.ID, resp.Columns[0].Clients[0].ID)
	assert.Equal(t, "Joshua Burt", resp.Columns[0].Clients[0].Name)

	_, err = s.handleGetBoard(context.Background(), mcp.CallToolRequest{}, BoardArgs{})
	assert.Error(t, err)
}

func TestMoveClient(t *testing.T) {
	s, c := setup(t)
	ctx := context.Background()

	resp, err := s.handleMoveClient(ctx, mcp.CallToolRequest{}, MoveArgs{OrgID: "org-1", ClientID: c.ID, Stage: "client-onboarding"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageClientOnboarding, resp.Stage)

	got, err := s.clients.Get(ctx, "org-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultActor, got.Timeline[0].Author)

	_, err = s.handleMoveClient(ctx, mcp.CallToolRequest{}, MoveArgs{OrgID: "org-1", ClientID: c.ID, Stage: "completed"})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestProtocol_ToolsList(t *testing.T) {
	s, _ := setup(t)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	out := s.MCPServer().HandleMessage(context.Background(), msg)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "list_stages")
	assert.Contains(t, body, "get_board")
	assert.Contains(t, body, "move_client")
}
