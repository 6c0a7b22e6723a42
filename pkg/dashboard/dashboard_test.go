package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/pkg/adapters/memory"
	"github.com/aretw0/brokerdesk/pkg/dashboard"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	put := func(id string, st domain.Stage, age time.Duration, archived bool, budgets ...domain.Budget) {
		require.NoError(t, store.Put(ctx, &domain.Client{
			ID: id, OrganizationID: "org", PipelineStage: st,
			CreatedAt: now.Add(-age), IsArchived: archived, Budgets: budgets,
		}))
	}
	put("a", domain.StageLeadIntake, 2*day, false)
	put("b", domain.StageLeadIntake, 40*day, false)
	put("c", domain.StageCompleted, 45*day, false, domain.Budget{Status: domain.BudgetApproved, Amount: 1200})
	put("d", domain.StageBudgetProcessing, 3*day, false, domain.Budget{Status: domain.BudgetDraft, Amount: 999})
	put("e", domain.StageCompleted, 1*day, true)
	require.NoError(t, store.Put(ctx, &domain.Client{ID: "x", OrganizationID: "other"}))

	m, err := dashboard.NewService(store, nil).WithClock(func() time.Time { return now }).Metrics(ctx, "org")
	require.NoError(t, err)

	assert.Equal(t, 4, m.TotalClients)
	assert.Equal(t, 2, m.ActiveLeads)
	assert.Equal(t, 1, m.Completed)
	assert.Equal(t, 1, m.Archived)
	assert.InDelta(t, 25.0, m.CompletionRate, 0.001)
	assert.Equal(t, 2, m.PerStage[domain.StageLeadIntake])
	assert.InDelta(t, 1200.0, m.ApprovedBudget, 0.001)
	assert.Equal(t, 2, m.NewClients)
	assert.InDelta(t, 0.0, m.ClientsGrowth, 0.001, "2 new vs 2 previous")
}

func TestMetrics_CustomPipeline(t *testing.T) {
	reg := stage.NewDefaultRegistry()
	require.NoError(t, reg.Register(domain.CustomPipeline{
		ID:   "intake-only",
		Name: "Intake Only",
		Stages: []domain.StageConfig{
			{ID: "call", Title: "Call", Order: 1, AllowedTransitions: []domain.Stage{"closed"}},
			{ID: "closed", Title: "Closed", Order: 2},
		},
	}))

	store := memory.NewStore()
	ctx := context.Background()
	for id, st := range map[string]domain.Stage{"a": "call", "b": "call", "c": "closed"} {
		require.NoError(t, store.Put(ctx, &domain.Client{ID: id, OrganizationID: "org", PipelineID: "intake-only", PipelineStage: st}))
	}
	require.NoError(t, store.Put(ctx, &domain.Client{ID: "d", OrganizationID: "org", PipelineID: stage.SimpleWorkflowID, PipelineStage: "new-lead"}))

	m, err := dashboard.NewService(store, reg).Metrics(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, 3, m.ActiveLeads, "leads sit at the entry stage of their own pipeline")
	assert.Equal(t, 1, m.Completed)
	assert.InDelta(t, 25.0, m.CompletionRate, 0.001)
}

func TestMetrics_EmptyOrganization(t *testing.T) {
	m, err := dashboard.NewService(memory.NewStore(), nil).Metrics(context.Background(), "org")
	require.NoError(t, err)
	assert.Zero(t, m.TotalClients)
	assert.Zero(t, m.CompletionRate)
}

func TestGrowthRate(t *testing.T) {
	assert.InDelta(t, 50.0, dashboard.GrowthRate(150, 100), 0.001)
	assert.InDelta(t, -50.0, dashboard.GrowthRate(50, 100), 0.001)
	assert.Zero(t, dashboard.GrowthRate(10, 0))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "+8.7%", dashboard.FormatPercentage(8.7))
	assert.Equal(t, "-0.5%", dashboard.FormatPercentage(-0.5))
	assert.Equal(t, "0.0%", dashboard.FormatPercentage(0))

	assert.Equal(t, "$3,345", dashboard.FormatCurrency(3345))
	assert.Equal(t, "$1,234,568", dashboard.FormatCurrency(1234567.6))
	assert.Equal(t, "$0", dashboard.FormatCurrency(0))
	assert.Equal(t, "-$999", dashboard.FormatCurrency(-999))
}
