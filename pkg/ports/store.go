package ports

import (
	"context"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// ClientStore persists Client records. Every call is scoped by organization id.
type ClientStore interface {
	// Get returns the client with clientID owned by orgID.
	// Returns domain.ErrClientNotFound if it does not exist or belongs to another organization.
	Get(ctx context.Context, orgID, clientID string) (*domain.Client, error)

	// Put writes the whole client document.
	// The stored version (zero when absent) must equal client.Version, otherwise
	// domain.ErrConcurrentModification is returned and nothing is written.
	// On success client.Version is incremented to match the stored copy.
	Put(ctx context.Context, client *domain.Client) error

	// ListByOrganization returns every client of orgID, archived ones included,
	// ordered by creation time.
	ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error)
}

// OrganizationStore persists Organizations.
type OrganizationStore interface {
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	PutOrganization(ctx context.Context, org *domain.Organization) error
	// FindByJoinCode returns domain.ErrOrganizationNotFound when no organization uses code.
	FindByJoinCode(ctx context.Context, code string) (*domain.Organization, error)
}

// UserStore persists UserProfiles.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.UserProfile, error)
	PutUser(ctx context.Context, user *domain.UserProfile) error
	ListUsersByOrganization(ctx context.Context, orgID string) ([]*domain.UserProfile, error)
}

// InviteStore persists InviteLinks.
type InviteStore interface {
	GetInvite(ctx context.Context, id string) (*domain.InviteLink, error)
	PutInvite(ctx context.Context, invite *domain.InviteLink) error
}

// Directory groups the organization, user and invite stores that a backend
// usually provides together.
type Directory interface {
	OrganizationStore
	UserStore
	InviteStore
}
