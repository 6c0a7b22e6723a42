package brokerdesk_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk"
	"github.com/aretw0/brokerdesk/internal/config"
	"github.com/aretw0/brokerdesk/pkg/adapters/memory"
	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server:    config.ServerConfig{Port: 8080, MCPPort: 8081, Actor: "Front Desk"},
		Log:       config.LogConfig{Level: "info", Format: "text"},
		Storage:   config.StorageConfig{Type: config.StorageMemory},
		Pipelines: config.PipelinesConfig{Source: config.PipelinesBuiltin},
		Actions:   config.ActionsConfig{Path: filepath.Join(dir, "actions.yaml")},
	}
}

func newApp(t *testing.T, cfg *config.Config, opts ...brokerdesk.Option) *brokerdesk.App {
	t.Helper()
	opts = append(opts, brokerdesk.WithPrometheus(prometheus.NewRegistry()))
	app, err := brokerdesk.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func TestApp_MoveFlow(t *testing.T) {
	app := newApp(t, testConfig(t))
	ctx := context.Background()

	c, err := app.Clients.Create(ctx, "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Joshua Burt", Email: "josh@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", c.Timeline[0].Author)

	moved, err := app.Pipeline.MoveClientToStage(ctx, "org-1", c.ID, domain.StageClientOnboarding)
	require.NoError(t, err)
	assert.Equal(t, domain.StageClientOnboarding, moved.PipelineStage)
	require.NoError(t, app.Pipeline.Wait(ctx))

	_, err = app.Pipeline.MoveClientToStage(ctx, "org-1", c.ID, domain.StageCompleted)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestApp_Handler(t *testing.T) {
	app := newApp(t, testConfig(t))
	ctx := context.Background()

	c, err := app.Clients.Create(ctx, "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Ana Costa"},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/orgs/org-1/clients/"+c.ID+"/move", strings.NewReader(`{"stage":"client-onboarding"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	assert.Contains(t, buf.String(), "brokerdesk_stage_moves_total")
}

func TestApp_EncryptedStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Encryption.Key = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	inner := memory.NewStore()
	app := newApp(t, cfg, brokerdesk.WithStore(inner))
	ctx := context.Background()

	c, err := app.Clients.Create(ctx, "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Joshua Burt"},
	})
	require.NoError(t, err)

	raw, err := inner.Get(ctx, "org-1", c.ID)
	require.NoError(t, err)
	assert.Empty(t, raw.PersonalInfo.FullName)
	assert.NotEmpty(t, raw.SealedPersonalInfo)

	got, err := app.Clients.Get(ctx, "org-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Joshua Burt", got.PersonalInfo.FullName)
}

func TestApp_DirectoryFollowsStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = config.StorageConfig{
		Type:   config.StorageSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "brokerdesk.db")},
	}
	ctx := context.Background()

	first, err := brokerdesk.New(ctx, cfg, brokerdesk.WithPrometheus(prometheus.NewRegistry()))
	require.NoError(t, err)
	_, err = first.Organizations.CreateUserProfile(ctx, "owner", "", "Ali Husni", domain.RoleBusinessOwner, "")
	require.NoError(t, err)
	org, err := first.Organizations.CreateOrganization(ctx, "Acme Brokerage", domain.OrgBrokerage, "owner")
	require.NoError(t, err)
	c, err := first.Clients.Create(ctx, org.ID, clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Ana Costa"},
	})
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := newApp(t, cfg)
	reloaded, err := second.Organizations.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, reloaded.Clients)

	employees, err := second.Organizations.Employees(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "owner", employees[0].ID)
}

func TestApp_InvalidEncryptionKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Encryption.Key = "not base64!"
	_, err := brokerdesk.New(context.Background(), cfg, brokerdesk.WithPrometheus(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestLoadRegistry_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipelines:
  - id: intake-only
    name: Intake Only
    entry_stage: call
    stages:
      - id: call
        title: Call
        order: 1
        allowed_transitions: [closed]
      - id: closed
        title: Closed
        order: 2
`), 0644))

	reg, err := brokerdesk.LoadRegistry(context.Background(), config.PipelinesConfig{Source: config.PipelinesFile, Path: path})
	require.NoError(t, err)

	p, err := reg.Resolve("intake-only")
	require.NoError(t, err)
	assert.Equal(t, domain.Stage("call"), p.Graph.EntryStage())
	assert.Len(t, reg.List(), 3)
}

func TestApp_MCPMasksReads(t *testing.T) {
	app := newApp(t, testConfig(t))
	_, err := app.Clients.Create(context.Background(), "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{
			FullName:    "Joshua Burt",
			DateOfBirth: time.Date(1984, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	srv, err := app.MCP()
	require.NoError(t, err)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_board","arguments":{"org_id":"org-1"}}}`)
	out := srv.MCPServer().HandleMessage(context.Background(), msg)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	body := string(data)
	assert.NotContains(t, body, "tool execution failed")
	assert.NotContains(t, body, "Joshua Burt")
	assert.Contains(t, body, `"name":"***"`)
}

func TestLoadRegistry_Loam(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intake.md"), []byte(`---
name: Intake Only
stages:
  - id: call
    title: Call
    order: 1
    allowed_transitions: [closed]
    automated_actions: [send-intake-form]
  - id: closed
    title: Closed
    order: 2
---
Phone screening before onboarding.`), 0644))

	reg, err := brokerdesk.LoadRegistry(context.Background(), config.PipelinesConfig{Source: config.PipelinesLoam, Path: dir})
	require.NoError(t, err)

	p, err := reg.Resolve("intake")
	require.NoError(t, err)
	assert.Equal(t, "Phone screening before onboarding.", p.Definition.Description)
	ok, err := p.Graph.CanTransition("call", "closed")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, reg.List(), 3)
}

func TestApp_ActionHandler(t *testing.T) {
	done := make(chan string, 1)
	app := newApp(t, testConfig(t), brokerdesk.WithActionHandler("send-broker-agreement", func(ctx context.Context, c *domain.Client) error {
		done <- c.ID
		return nil
	}))
	ctx := context.Background()

	c, err := app.Clients.Create(ctx, "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Ana Costa"},
	})
	require.NoError(t, err)
	_, err = app.Pipeline.MoveClientToStage(ctx, "org-1", c.ID, domain.StageClientOnboarding)
	require.NoError(t, err)
	require.NoError(t, app.Pipeline.Wait(ctx))

	select {
	case id := <-done:
		assert.Equal(t, c.ID, id)
	default:
		t.Fatal("handler was not called")
	}
}
