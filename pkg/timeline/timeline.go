// Package timeline builds TimelineEvents and prepends them to a client's history.
package timeline

import (
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/google/uuid"
)

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// Builder creates events with generated ids and captured timestamps.
type Builder struct {
	now   Clock
	newID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(b *Builder) {
		b.now = c
	}
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		b.newID = fn
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now exposes the builder clock so callers stamp related fields consistently.
func (b *Builder) Now() time.Time {
	return b.now()
}

// New constructs an event for clientID. An empty author is recorded as domain.SystemAuthor.
func (b *Builder) New(clientID string, typ domain.EventType, title, description, author string) domain.TimelineEvent {
	if author == "" {
		author = domain.SystemAuthor
	}
	return domain.TimelineEvent{
		ID:          b.newID(),
		ClientID:    clientID,
		Type:        typ,
		Title:       title,
		Description: description,
		Date:        b.now(),
		Author:      author,
	}
}

// StageMoved constructs a stage-moved event.
func (b *Builder) StageMoved(clientID, pipelineID string, from, to domain.Stage, fromTitle, toTitle, author string) domain.TimelineEvent {
	e := b.New(clientID, domain.EventStageMoved,
		"Moved to "+toTitle,
		"Client moved from "+fromTitle+" to "+toTitle,
		author)
	e.StageMoved = &domain.StageMovedDetail{From: from, To: to, PipelineID: pipelineID}
	return e
}

// PipelineAssigned constructs a pipeline-assigned event.
func (b *Builder) PipelineAssigned(clientID, pipelineID, pipelineName string, entry domain.Stage, author string) domain.TimelineEvent {
	e := b.New(clientID, domain.EventPipelineAssigned,
		"Assigned to "+pipelineName,
		"Client assigned to pipeline "+pipelineName+" at stage "+string(entry),
		author)
	e.PipelineAssigned = &domain.PipelineAssignedDetail{PipelineID: pipelineID, Stage: entry}
	return e
}

// StatusChanged constructs a status-changed event.
func (b *Builder) StatusChanged(clientID string, from, to domain.ClientStatus, title, description, author string) domain.TimelineEvent {
	e := b.New(clientID, domain.EventStatusChanged, title, description, author)
	e.StatusChanged = &domain.StatusChangedDetail{From: from, To: to}
	return e
}

// Prepend returns a new slice with e at the head followed by events.
// events itself is never modified.
func Prepend(events []domain.TimelineEvent, e domain.TimelineEvent) []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, 0, len(events)+1)
	out = append(out, e)
	return append(out, events...)
}
