package domain

import (
	"context"
	"time"
)

// MoveEvent describes a committed stage change.
type MoveEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	OrganizationID string    `json:"organization_id"`
	ClientID       string    `json:"client_id"`
	PipelineID     string    `json:"pipeline_id,omitempty"`
	From           Stage     `json:"from"`
	To             Stage     `json:"to"`
	Author         string    `json:"author"`
}

// RejectionEvent describes a move refused by the stage graph.
type RejectionEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	OrganizationID string    `json:"organization_id"`
	ClientID       string    `json:"client_id"`
	From           Stage     `json:"from"`
	To             Stage     `json:"to"`
	Err            error     `json:"-"`
}

// ActionEvent describes one automated action handed to the dispatcher.
type ActionEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	ClientID  string        `json:"client_id"`
	Stage     Stage         `json:"stage"`
	Action    string        `json:"action"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnStageMoved         func(context.Context, *MoveEvent)
	OnTransitionRejected func(context.Context, *RejectionEvent)
	OnActionDispatched   func(context.Context, *ActionEvent)
}
