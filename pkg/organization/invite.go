package organization

import (
	"context"
	"fmt"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// CreateInvite issues an invite valid for InviteTTL. Nil perms means the role's defaults.
func (s *Service) CreateInvite(ctx context.Context, orgID string, role domain.Role, invitedBy, email string, perms []domain.Permission) (*domain.InviteLink, error) {
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	if perms == nil {
		perms = domain.RolePermissions(role)
	}
	now := s.now()
	inv := &domain.InviteLink{
		ID:             s.newID(),
		OrganizationID: orgID,
		Role:           role,
		Permissions:    append([]domain.Permission{}, perms...),
		InvitedBy:      invitedBy,
		Email:          email,
		CreatedAt:      now,
		ExpiresAt:      now.Add(InviteTTL),
		IsActive:       true,
	}
	if err := s.invites.PutInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}
	return inv, nil
}

// GetInvite returns a redeemable invite or domain.ErrInviteInvalid.
func (s *Service) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	inv, err := s.invites.GetInvite(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Valid(s.now()) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInviteInvalid, id)
	}
	return inv, nil
}

// UseInvite redeems an invite for userID. The invite cannot be used again.
// The user receives the invite's permissions, which may differ from the role defaults.
// The invite is spent only once the user has joined, so a failed redemption can be retried.
func (s *Service) UseInvite(ctx context.Context, id, userID string) error {
	inv, err := s.GetInvite(ctx, id)
	if err != nil {
		return err
	}

	if err := s.AddUserToOrganization(ctx, userID, inv.OrganizationID, inv.Role); err != nil {
		return err
	}
	if err := s.UpdatePermissions(ctx, userID, inv.Permissions); err != nil {
		return err
	}

	now := s.now()
	inv.UsedAt = &now
	inv.UsedBy = userID
	inv.IsActive = false
	if err := s.invites.PutInvite(ctx, inv); err != nil {
		return fmt.Errorf("failed to mark invite used: %w", err)
	}
	return nil
}
