// Package clients manages client records outside of stage moves: intake,
// direct field edits, archiving, case notes and the pipeline board.
package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/locking"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/aretw0/brokerdesk/pkg/timeline"
	"github.com/google/uuid"
)

const maxAttempts = 3

// Service manages clients of every organization. All calls are organization scoped.
type Service struct {
	store    ports.ClientStore
	registry *stage.Registry
	orgs     ports.OrganizationStore
	identity ports.IdentityContext
	locks    *locking.Keyed
	events   *timeline.Builder
	logger   *slog.Logger
	newID    func() string
}

// Option configures the Service.
type Option func(*Service)

func WithIdentity(id ports.IdentityContext) Option {
	return func(s *Service) {
		s.identity = id
	}
}

// WithOrganizations keeps Organization.Clients in sync on Create.
func WithOrganizations(orgs ports.OrganizationStore) Option {
	return func(s *Service) {
		s.orgs = orgs
	}
}

// WithLocks shares the per-client lock set with the pipeline service.
func WithLocks(k *locking.Keyed) Option {
	return func(s *Service) {
		s.locks = k
	}
}

func WithTimeline(b *timeline.Builder) Option {
	return func(s *Service) {
		s.events = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIDGenerator overrides client, case, note and milestone id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func NewService(store ports.ClientStore, registry *stage.Registry, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: registry,
		identity: anonymous{},
		events:   timeline.NewBuilder(),
		logger:   logging.NewNop(),
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = locking.New(locking.WithLogger(s.logger))
	}
	return s
}

// CreateInput carries the intake form of a new client.
type CreateInput struct {
	PersonalInfo   domain.PersonalInfo  `json:"personalInfo"`
	CareManager    domain.CareManager   `json:"careManager"`
	Services       []domain.ServiceType `json:"services"`
	PipelineID     string               `json:"pipelineId,omitempty"`
	AssignedBroker string               `json:"assignedBroker,omitempty"`
	Priority       domain.CasePriority  `json:"priority,omitempty"`
}

// Create registers a client in the entry stage of its pipeline, with an open
// case, the default milestones and a client-created event.
func (s *Service) Create(ctx context.Context, orgID string, in CreateInput) (*domain.Client, error) {
	name := in.PersonalInfo.DisplayName()
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", domain.ErrInvalidInput)
	}
	p, err := s.registry.Resolve(in.PipelineID)
	if err != nil {
		return nil, err
	}

	actor := s.identity.CurrentActorName(ctx)
	broker := in.AssignedBroker
	if broker == "" {
		broker = actor
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := s.events.Now()
	id := s.newID()
	info := in.PersonalInfo
	info.FullName = name

	c := &domain.Client{
		ID:             id,
		OrganizationID: orgID,
		PersonalInfo:   info,
		CareManager:    in.CareManager,
		Services:       append([]domain.ServiceType(nil), in.Services...),
		Status:         domain.ClientActive,
		PipelineStage:  p.Graph.EntryStage(),
		PipelineID:     in.PipelineID,
		Case: domain.ClientCase{
			ID:             s.newID(),
			ClientID:       id,
			Title:          name + " - Broker Services Case",
			Description:    "Comprehensive broker services case for " + name,
			Priority:       priority,
			Status:         domain.CaseOpen,
			AssignedBroker: broker,
			StartDate:      now,
			Notes:          []domain.CaseNote{},
			Milestones:     s.defaultMilestones(now),
		},
		Documents: []domain.ClientDocument{},
		Budgets:   []domain.Budget{},
		Timeline: []domain.TimelineEvent{
			s.events.New(id, domain.EventClientCreated, "Client Created", "New client has been added to the system", actor),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if s.orgs != nil {
		if err := s.linkToOrganization(ctx, orgID, id); err != nil {
			s.logger.Warn("client created but organization not updated", "org_id", orgID, "client_id", id, "err", err)
		}
	}

	s.logger.Info("client created", "org_id", orgID, "client_id", id, "stage", c.PipelineStage)
	return c, nil
}

func (s *Service) defaultMilestones(now time.Time) []domain.CaseMilestone {
	day := 24 * time.Hour
	return []domain.CaseMilestone{
		{
			ID:          s.newID(),
			Title:       "Initial Contact",
			Description: "Make initial contact with client and care manager",
			TargetDate:  now.Add(7 * day),
			Status:      domain.MilestonePending,
		},
		{
			ID:          s.newID(),
			Title:       "Broker Agreement Signed",
			Description: "Complete and receive signed broker agreement",
			TargetDate:  now.Add(14 * day),
			Status:      domain.MilestonePending,
		},
		{
			ID:          s.newID(),
			Title:       "Budget Approval",
			Description: "Receive budget approval from Fiscal Intermediary",
			TargetDate:  now.Add(30 * day),
			Status:      domain.MilestonePending,
		},
	}
}

func (s *Service) linkToOrganization(ctx context.Context, orgID, clientID string) error {
	org, err := s.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	org.Clients = append(org.Clients, clientID)
	org.UpdatedAt = s.events.Now()
	return s.orgs.PutOrganization(ctx, org)
}

// Get returns a client of orgID, archived or not.
func (s *Service) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	return s.store.Get(ctx, orgID, clientID)
}

// List returns the clients of orgID, oldest first. Archived clients are
// included only when includeArchived is set.
func (s *Service) List(ctx context.Context, orgID string, includeArchived bool) ([]*domain.Client, error) {
	all, err := s.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	if includeArchived {
		return all, nil
	}
	out := make([]*domain.Client, 0, len(all))
	for _, c := range all {
		if !c.IsArchived {
			out = append(out, c)
		}
	}
	return out, nil
}

// Archive hides a client from the board. Archiving an archived client is a no-op.
func (s *Service) Archive(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	return s.mutate(ctx, orgID, clientID, func(c *domain.Client, actor string) (bool, error) {
		if c.IsArchived {
			return false, nil
		}
		now := s.events.Now()
		from := c.Status
		c.IsArchived = true
		c.ArchivedAt = &now
		c.Status = domain.ClientInactive
		c.Timeline = timeline.Prepend(c.Timeline, s.events.StatusChanged(
			c.ID, from, c.Status, "Client Archived", "Client has been archived", actor))
		return true, nil
	})
}

// Unarchive reverses Archive and reactivates the client.
func (s *Service) Unarchive(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	return s.mutate(ctx, orgID, clientID, func(c *domain.Client, actor string) (bool, error) {
		if !c.IsArchived {
			return false, nil
		}
		from := c.Status
		c.IsArchived = false
		c.ArchivedAt = nil
		c.Status = domain.ClientActive
		c.Timeline = timeline.Prepend(c.Timeline, s.events.StatusChanged(
			c.ID, from, c.Status, "Client Unarchived", "Client has been unarchived", actor))
		return true, nil
	})
}

// AddNote records a case note and a note-added event. An empty type means general.
func (s *Service) AddNote(ctx context.Context, orgID, clientID, content string, typ domain.NoteType) (*domain.Client, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", domain.ErrInvalidInput)
	}
	if typ == "" {
		typ = domain.NoteGeneral
	}
	return s.mutate(ctx, orgID, clientID, func(c *domain.Client, actor string) (bool, error) {
		if actor == "" {
			actor = domain.SystemAuthor
		}
		note := domain.CaseNote{
			ID:        s.newID(),
			Content:   content,
			Author:    actor,
			CreatedAt: s.events.Now(),
			Type:      typ,
		}
		c.Case.Notes = append([]domain.CaseNote{note}, c.Case.Notes...)
		c.Timeline = timeline.Prepend(c.Timeline, s.events.New(
			c.ID, domain.EventNoteAdded, "Case Note Added", content, actor))
		return true, nil
	})
}

// mutate runs fn on a fresh copy of the client under its lock and persists the
// result when fn reports a change. Stale writes are retried from a new read.
func (s *Service) mutate(ctx context.Context, orgID, clientID string, fn func(c *domain.Client, actor string) (bool, error)) (*domain.Client, error) {
	actor := s.identity.CurrentActorName(ctx)

	var out *domain.Client
	err := s.locks.WithLock(ctx, locking.Key(orgID, clientID), func(ctx context.Context) error {
		var err error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			var c *domain.Client
			c, err = s.store.Get(ctx, orgID, clientID)
			if err != nil {
				return err
			}
			changed, ferr := fn(c, actor)
			if ferr != nil {
				return ferr
			}
			if !changed {
				out = c
				return nil
			}
			c.UpdatedAt = s.events.Now()
			if err = s.store.Put(ctx, c); err == nil {
				out = c
				return nil
			}
			if !errors.Is(err, domain.ErrConcurrentModification) {
				return fmt.Errorf("failed to save client %s: %w", clientID, err)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type anonymous struct{}

func (anonymous) CurrentActorName(context.Context) string { return "" }
