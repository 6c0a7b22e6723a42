package pipeline

import (
	"log/slog"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/locking"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/aretw0/brokerdesk/pkg/timeline"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxAttempts     = 3
	DefaultBulkConcurrency = 8
	DefaultDispatchTimeout = 30 * time.Second
)

// Option configures the Service.
type Option func(*Service)

// WithIdentity sets how the acting user is resolved for timeline attribution.
func WithIdentity(id ports.IdentityContext) Option {
	return func(s *Service) {
		s.identity = id
	}
}

// WithDispatcher sets the sink for automated stage actions.
func WithDispatcher(d ports.ActionDispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

// WithLocks shares a per-client lock set, e.g. one backed by a distributed locker.
func WithLocks(k *locking.Keyed) Option {
	return func(s *Service) {
		s.locks = k
	}
}

// WithTimeline overrides the event builder (clock and id generation).
func WithTimeline(b *timeline.Builder) Option {
	return func(s *Service) {
		s.events = b
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMaxAttempts bounds how often a move is retried after a concurrent modification.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBulkConcurrency bounds how many moves of one BulkMove run at once.
func WithBulkConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bulkConcurrency = n
		}
	}
}

// WithDispatchTimeout bounds the delivery of each automated action.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}
