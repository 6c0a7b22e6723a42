package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/locking"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/aretw0/brokerdesk/pkg/timeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/brokerdesk/pkg/pipeline"

// Service orchestrates stage moves. Construct it with NewService.
type Service struct {
	store      ports.ClientStore
	registry   *stage.Registry
	identity   ports.IdentityContext
	dispatcher ports.ActionDispatcher
	locks      *locking.Keyed
	events     *timeline.Builder
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	tracer     trace.Tracer

	maxAttempts     int
	bulkConcurrency int
	dispatchTimeout time.Duration

	mu       sync.Mutex
	inflight int
	idle     chan struct{}
	closed   bool
}

// NewService creates a pipeline Service over store, resolving stage graphs from registry.
func NewService(store ports.ClientStore, registry *stage.Registry, opts ...Option) *Service {
	s := &Service{
		store:           store,
		registry:        registry,
		identity:        anonymous{},
		dispatcher:      nopDispatcher{},
		events:          timeline.NewBuilder(),
		logger:          logging.NewNop(),
		tracer:          otel.Tracer(tracerName),
		maxAttempts:     DefaultMaxAttempts,
		bulkConcurrency: DefaultBulkConcurrency,
		dispatchTimeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = locking.New(locking.WithLogger(s.logger))
	}
	return s
}

// Registry returns the pipelines the service resolves client graphs from.
func (s *Service) Registry() *stage.Registry {
	return s.registry
}

// MoveClientToStage moves one client of orgID to target and returns the stored result.
//
// Archived or missing clients fail with domain.ErrClientNotFound. Moves the graph
// does not allow fail with a *domain.TransitionError and leave the client untouched.
// Stale writes are retried from a fresh read; once attempts run out the error
// matches domain.ErrConcurrentModification.
func (s *Service) MoveClientToStage(ctx context.Context, orgID, clientID string, target domain.Stage) (*domain.Client, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.MoveClientToStage", trace.WithAttributes(
		attribute.String("brokerdesk.org_id", orgID),
		attribute.String("brokerdesk.client_id", clientID),
		attribute.String("brokerdesk.target_stage", string(target)),
	))
	defer span.End()

	var (
		moved *domain.Client
		from  domain.Stage
		cfg   domain.StageConfig
	)
	err := s.locks.WithLock(ctx, locking.Key(orgID, clientID), func(ctx context.Context) error {
		return s.retry(ctx, func() error {
			c, p, err := s.load(ctx, orgID, clientID)
			if err != nil {
				return err
			}

			from = c.PipelineStage
			if err := s.check(ctx, orgID, c, p.Graph, target); err != nil {
				return err
			}
			cfg, _ = p.Graph.Lookup(target)

			next := c.Clone()
			next.PipelineStage = target
			next.UpdatedAt = s.events.Now()
			next.Timeline = timeline.Prepend(c.Timeline, s.events.StageMoved(
				c.ID, c.PipelineID,
				from, target,
				p.Graph.Title(from), p.Graph.Title(target),
				s.identity.CurrentActorName(ctx),
			))

			if err := s.store.Put(ctx, next); err != nil {
				return fmt.Errorf("failed to save client %s: %w", clientID, err)
			}
			moved = next
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Debug("client moved",
		"org_id", orgID,
		"client_id", clientID,
		"from", from,
		"to", target,
	)
	if s.hooks.OnStageMoved != nil {
		s.hooks.OnStageMoved(ctx, &domain.MoveEvent{
			Timestamp:      moved.UpdatedAt,
			OrganizationID: orgID,
			ClientID:       clientID,
			PipelineID:     moved.PipelineID,
			From:           from,
			To:             target,
			Author:         moved.Timeline[0].Author,
		})
	}

	s.dispatch(ctx, moved.Clone(), cfg)
	return moved, nil
}

// AssignPipeline switches a client to pipelineID and resets it to that pipeline's entry stage.
// Its milestones, notes and prior timeline are kept.
func (s *Service) AssignPipeline(ctx context.Context, orgID, clientID, pipelineID string) (*domain.Client, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.AssignPipeline", trace.WithAttributes(
		attribute.String("brokerdesk.org_id", orgID),
		attribute.String("brokerdesk.client_id", clientID),
		attribute.String("brokerdesk.pipeline_id", pipelineID),
	))
	defer span.End()

	p, err := s.registry.Resolve(pipelineID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	entry := p.Graph.EntryStage()

	var assigned *domain.Client
	err = s.locks.WithLock(ctx, locking.Key(orgID, clientID), func(ctx context.Context) error {
		return s.retry(ctx, func() error {
			c, err := s.store.Get(ctx, orgID, clientID)
			if err != nil {
				return err
			}
			if c.IsArchived {
				return fmt.Errorf("%w: %s is archived", domain.ErrClientNotFound, clientID)
			}

			next := c.Clone()
			next.PipelineID = p.Definition.ID
			next.PipelineStage = entry
			next.UpdatedAt = s.events.Now()
			next.Timeline = timeline.Prepend(c.Timeline, s.events.PipelineAssigned(
				c.ID, p.Definition.ID, p.Definition.Name, entry,
				s.identity.CurrentActorName(ctx),
			))
			if err := s.store.Put(ctx, next); err != nil {
				return fmt.Errorf("failed to save client %s: %w", clientID, err)
			}
			assigned = next
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return assigned, nil
}

// Wait blocks until every background action dispatch has finished or ctx is done.
// Moves may keep dispatching while it waits; use Close to stop them first.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops later moves from dispatching actions and waits for the ones in flight.
// Moves still commit after Close; only their automated actions are dropped.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Wait(ctx)
}

// begin registers one background dispatch. It reports false once the service is closed.
func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	return true
}

func (s *Service) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
}

func (s *Service) load(ctx context.Context, orgID, clientID string) (*domain.Client, *stage.Pipeline, error) {
	c, err := s.store.Get(ctx, orgID, clientID)
	if err != nil {
		return nil, nil, err
	}
	if c.IsArchived {
		return nil, nil, fmt.Errorf("%w: %s is archived", domain.ErrClientNotFound, clientID)
	}
	p, err := s.registry.Resolve(c.PipelineID)
	if err != nil {
		return nil, nil, fmt.Errorf("client %s: %w", clientID, err)
	}
	return c, p, nil
}

// check runs the transition validator and reports rejections to the hooks.
func (s *Service) check(ctx context.Context, orgID string, c *domain.Client, g *stage.Graph, target domain.Stage) error {
	ok, err := g.CanTransition(c.PipelineStage, target)
	if err == nil && ok {
		return nil
	}

	rejection := &domain.TransitionError{From: c.PipelineStage, To: target, Reason: err}
	if s.hooks.OnTransitionRejected != nil {
		s.hooks.OnTransitionRejected(ctx, &domain.RejectionEvent{
			Timestamp:      s.events.Now(),
			OrganizationID: orgID,
			ClientID:       c.ID,
			From:           c.PipelineStage,
			To:             target,
			Err:            rejection,
		})
	}
	return rejection
}

// retry re-runs fn while it fails with a concurrent modification.
func (s *Service) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		s.logger.Debug("retrying after concurrent modification", "attempt", attempt, "err", err)
	}
	return err
}

// dispatch delivers cfg's automated actions in order on a background goroutine.
// It outlives the caller's ctx: cancelling a request never drops a committed move's actions
// unless the per-action timeout expires.
func (s *Service) dispatch(ctx context.Context, c *domain.Client, cfg domain.StageConfig) {
	if len(cfg.AutomatedActions) == 0 {
		return
	}
	if !s.begin() {
		s.logger.Warn("dropping automated actions after close",
			"client_id", c.ID,
			"stage", cfg.ID,
			"actions", len(cfg.AutomatedActions),
		)
		return
	}
	base := context.WithoutCancel(ctx)

	go func() {
		defer s.end()
		for _, action := range cfg.AutomatedActions {
			actx, cancel := context.WithTimeout(base, s.dispatchTimeout)
			start := time.Now()
			err := s.safeDispatch(actx, action, c)
			cancel()

			if err != nil {
				s.logger.Warn("automated action failed",
					"action", action,
					"client_id", c.ID,
					"stage", cfg.ID,
					"err", err,
				)
			}
			if s.hooks.OnActionDispatched != nil {
				s.hooks.OnActionDispatched(base, &domain.ActionEvent{
					Timestamp: start,
					ClientID:  c.ID,
					Stage:     cfg.ID,
					Action:    action,
					Duration:  time.Since(start),
					Err:       err,
				})
			}
		}
	}()
}

func (s *Service) safeDispatch(ctx context.Context, action string, c *domain.Client) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()
	return s.dispatcher.Dispatch(ctx, action, c)
}

type anonymous struct{}

func (anonymous) CurrentActorName(context.Context) string { return "" }

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, string, *domain.Client) error { return nil }
