package domain

import (
	"errors"
	"fmt"
)

// ErrClientNotFound is returned when a client does not exist in the caller's
// organization or is archived and therefore not a valid move target.
var ErrClientNotFound = errors.New("client not found")

// ErrInvalidStage is returned when a stage id is not part of the pipeline.
var ErrInvalidStage = errors.New("invalid stage")

// ErrIllegalTransition is returned when a well-formed move is not allowed by the stage graph.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrConcurrentModification is returned when a write carries a stale client version.
var ErrConcurrentModification = errors.New("concurrent modification")

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInviteInvalid        = errors.New("invite is invalid or expired")
	ErrImmutableField       = errors.New("field cannot be edited directly")
	ErrPipelineNotFound     = errors.New("pipeline not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidInput         = errors.New("invalid input")
)

// TransitionError reports a rejected move together with both stage ids.
// It always matches ErrIllegalTransition; Reason, when set, carries the
// underlying cause such as ErrInvalidStage for an unknown stage id.
type TransitionError struct {
	From   Stage
	To     Stage
	Reason error
}

func (e *TransitionError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("illegal transition %s -> %s: %v", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() []error {
	if e.Reason != nil {
		return []error{ErrIllegalTransition, e.Reason}
	}
	return []error{ErrIllegalTransition}
}
