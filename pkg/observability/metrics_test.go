package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	h := m.Hooks()
	ctx := context.Background()

	h.OnStageMoved(ctx, &domain.MoveEvent{PipelineID: "disability-services", From: domain.StageLeadIntake, To: domain.StageClientOnboarding})
	h.OnStageMoved(ctx, &domain.MoveEvent{PipelineID: "disability-services", From: domain.StageLeadIntake, To: domain.StageClientOnboarding})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageMoves.WithLabelValues("disability-services", "lead-intake", "client-onboarding")))

	h.OnTransitionRejected(ctx, &domain.RejectionEvent{Err: &domain.TransitionError{From: "a", To: "b", Reason: domain.ErrInvalidStage}})
	h.OnTransitionRejected(ctx, &domain.RejectionEvent{Err: &domain.TransitionError{From: "a", To: "b"}})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("invalid_stage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("illegal_transition")))

	h.OnActionDispatched(ctx, &domain.ActionEvent{Action: "create-budget", Duration: time.Millisecond})
	h.OnActionDispatched(ctx, &domain.ActionEvent{Action: "create-budget", Err: errors.New("smtp down")})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("create-budget", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("create-budget", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ActionDuration))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestLogHooksAndCombine(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSON(&buf, slog.LevelDebug)

	moved := 0
	counting := domain.LifecycleHooks{
		OnStageMoved: func(context.Context, *domain.MoveEvent) { moved++ },
	}
	h := Combine(LogHooks(logger), counting, domain.LifecycleHooks{})
	ctx := context.Background()

	h.OnStageMoved(ctx, &domain.MoveEvent{ClientID: "c1", From: domain.StageLeadIntake, To: domain.StageClientOnboarding, Author: "Jess"})
	h.OnTransitionRejected(ctx, &domain.RejectionEvent{ClientID: "c1", Err: errors.New("nope")})
	h.OnActionDispatched(ctx, &domain.ActionEvent{ClientID: "c1", Action: "send-intake-form"})

	assert.Equal(t, 1, moved)
	out := buf.String()
	assert.Contains(t, out, `"msg":"stage_moved"`)
	assert.Contains(t, out, `"author":"Jess"`)
	assert.Contains(t, out, `"msg":"transition_rejected"`)
	assert.Contains(t, out, `"err":"nope"`)
	assert.Contains(t, out, `"msg":"action_dispatched"`)
}
