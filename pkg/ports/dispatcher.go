package ports

import (
	"context"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// ActionDispatcher delivers a named automated action for a client.
// Delivery is best-effort: callers log a returned error and move on.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action string, client *domain.Client) error
}

// IdentityContext resolves who is acting in ctx.
// An empty name means no identity is available.
type IdentityContext interface {
	CurrentActorName(ctx context.Context) string
}
