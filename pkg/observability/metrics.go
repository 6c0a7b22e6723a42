package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	StageMoves     *prometheus.CounterVec
	Rejections     *prometheus.CounterVec
	Actions        *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		StageMoves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerdesk_stage_moves_total",
				Help: "Total number of committed stage moves",
			},
			[]string{"pipeline_id", "from", "to"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerdesk_transition_rejections_total",
				Help: "Total number of moves refused by the stage graph",
			},
			[]string{"reason"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerdesk_actions_total",
				Help: "Total number of automated actions dispatched",
			},
			[]string{"action", "result"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brokerdesk_action_duration_seconds",
				Help:    "Duration of automated action dispatches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
	}

	for _, c := range []prometheus.Collector{m.StageMoves, m.Rejections, m.Actions, m.ActionDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records every lifecycle event into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageMoved: func(_ context.Context, e *domain.MoveEvent) {
			m.StageMoves.WithLabelValues(e.PipelineID, string(e.From), string(e.To)).Inc()
		},
		OnTransitionRejected: func(_ context.Context, e *domain.RejectionEvent) {
			m.Rejections.WithLabelValues(rejectionReason(e.Err)).Inc()
		},
		OnActionDispatched: func(_ context.Context, e *domain.ActionEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Actions.WithLabelValues(e.Action, result).Inc()
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
		},
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidStage):
		return "invalid_stage"
	case errors.Is(err, domain.ErrIllegalTransition):
		return "illegal_transition"
	default:
		return "other"
	}
}

// LogHooks writes one structured line per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageMoved: func(ctx context.Context, e *domain.MoveEvent) {
			logger.InfoContext(ctx, "stage_moved",
				"org_id", e.OrganizationID,
				"client_id", e.ClientID,
				"from", e.From,
				"to", e.To,
				"author", e.Author,
			)
		},
		OnTransitionRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			logger.WarnContext(ctx, "transition_rejected",
				"org_id", e.OrganizationID,
				"client_id", e.ClientID,
				"from", e.From,
				"to", e.To,
				"error", e.Err,
			)
		},
		OnActionDispatched: func(ctx context.Context, e *domain.ActionEvent) {
			level := slog.LevelDebug
			if e.Err != nil {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "action_dispatched",
				"client_id", e.ClientID,
				"action", e.Action,
				"duration", e.Duration,
				"error", e.Err,
			)
		},
	}
}

// Combine fans each event out to every set of hooks, in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageMoved: func(ctx context.Context, e *domain.MoveEvent) {
			for _, h := range all {
				if h.OnStageMoved != nil {
					h.OnStageMoved(ctx, e)
				}
			}
		},
		OnTransitionRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			for _, h := range all {
				if h.OnTransitionRejected != nil {
					h.OnTransitionRejected(ctx, e)
				}
			}
		},
		OnActionDispatched: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range all {
				if h.OnActionDispatched != nil {
					h.OnActionDispatched(ctx, e)
				}
			}
		},
	}
}
