package stage_test

import (
	"context"
	"testing"

	"github.com/aretw0/brokerdesk/pkg/adapters/memory"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Defaults(t *testing.T) {
	r := stage.NewDefaultRegistry()
	assert.Equal(t, stage.DisabilityServicesID, r.DefaultID())

	p, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, stage.DisabilityServicesID, p.Definition.ID)

	simple, err := r.Resolve(stage.SimpleWorkflowID)
	require.NoError(t, err)
	assert.Equal(t, domain.Stage("new-lead"), simple.Graph.EntryStage())

	_, err = r.Resolve("missing")
	assert.ErrorIs(t, err, domain.ErrPipelineNotFound)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, stage.DisabilityServicesID, list[0].Definition.ID)
}

func TestRegistry_RegisterCustom(t *testing.T) {
	r := stage.NewRegistry()
	require.NoError(t, r.Register(domain.CustomPipeline{
		ID: "intake-only",
		Stages: []domain.StageConfig{
			{ID: "open", Order: 1, AllowedTransitions: []domain.Stage{"closed"}},
			{ID: "closed", Order: 2, AllowedTransitions: []domain.Stage{"open"}},
		},
	}))
	assert.Equal(t, "intake-only", r.DefaultID(), "first pipeline becomes the default")

	p, err := r.Resolve("intake-only")
	require.NoError(t, err)
	assert.Equal(t, domain.Stage("open"), p.Definition.EntryStage, "entry is filled from the graph")

	err = r.Register(domain.CustomPipeline{
		ID:     "broken",
		Stages: []domain.StageConfig{{ID: "x", AllowedTransitions: []domain.Stage{"y"}}},
	})
	assert.Error(t, err)

	assert.Error(t, r.Register(domain.CustomPipeline{}), "id is required")
}

func TestRegistry_LoadFrom(t *testing.T) {
	r := stage.NewDefaultRegistry()
	loader := memory.NewLoader(
		domain.CustomPipeline{
			ID:         "intake-only",
			Name:       "Intake Only",
			IsDefault:  true,
			EntryStage: "call",
			Stages: []domain.StageConfig{
				{ID: "call", Title: "Call", Order: 1, AllowedTransitions: []domain.Stage{"closed"}},
				{ID: "closed", Title: "Closed", Order: 2},
			},
		},
		domain.CustomPipeline{ID: "broken"},
	)

	n, err := r.LoadFrom(context.Background(), loader)
	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline broken")

	assert.Equal(t, "intake-only", r.DefaultID())
	_, err = r.Resolve("broken")
	assert.ErrorIs(t, err, domain.ErrPipelineNotFound)
	assert.Len(t, r.List(), 3)
}
