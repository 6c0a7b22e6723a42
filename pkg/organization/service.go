// Package organization manages tenants, their employees, invites and permissions.
package organization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/google/uuid"
)

// InviteTTL is how long an invite link stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

// Service manages organizations and their members.
type Service struct {
	orgs    ports.OrganizationStore
	users   ports.UserStore
	invites ports.InviteStore
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func NewService(orgs ports.OrganizationStore, users ports.UserStore, invites ports.InviteStore, opts ...Option) *Service {
	s := &Service{
		orgs:    orgs,
		users:   users,
		invites: invites,
		logger:  logging.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrganization creates a tenant with ownerID as its first employee.
// The owner's profile, when it exists, is moved into the organization as business owner.
func (s *Service) CreateOrganization(ctx context.Context, name string, typ domain.OrganizationType, ownerID string) (*domain.Organization, error) {
	if name == "" || ownerID == "" {
		return nil, fmt.Errorf("%w: name and owner are required", domain.ErrInvalidInput)
	}
	now := s.now()
	org := &domain.Organization{
		ID:        s.newID(),
		Name:      name,
		Type:      typ,
		OwnerID:   ownerID,
		Employees: []string{ownerID},
		Clients:   []string{},
		Settings: domain.Settings{
			AllowClientSelfRegistration: true,
			RequireEmployeeApproval:     true,
			DefaultEmployeePermissions:  domain.RolePermissions(domain.RoleEmployee),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	org.JoinCode = s.GenerateJoinCode(org.ID)

	if err := s.orgs.PutOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	if owner, err := s.users.GetUser(ctx, ownerID); err == nil {
		owner.OrganizationID = org.ID
		owner.Role = domain.RoleBusinessOwner
		owner.Permissions = domain.RolePermissions(domain.RoleBusinessOwner)
		if err := s.users.PutUser(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to update owner: %w", err)
		}
	}

	s.logger.Info("organization created", "org_id", org.ID, "owner_id", ownerID)
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return s.orgs.GetOrganization(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	return s.users.GetUser(ctx, id)
}

// CreateUserProfile registers a user. Members of an organization get their role's
// permissions; users without one get none unless they are business owners.
func (s *Service) CreateUserProfile(ctx context.Context, id, email, displayName string, role domain.Role, orgID string) (*domain.UserProfile, error) {
	if id == "" {
		id = s.newID()
	}
	var perms []domain.Permission
	if orgID != "" || role == domain.RoleBusinessOwner {
		perms = domain.RolePermissions(role)
	}
	first, last, _ := strings.Cut(strings.TrimSpace(displayName), " ")

	now := s.now()
	u := &domain.UserProfile{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		Permissions: perms,
		IsActive:    true,
		JoinedAt:    now,
		LastLoginAt: now,
		Profile: domain.Profile{
			FirstName: first,
			LastName:  strings.TrimSpace(last),
		},
	}
	if err := s.users.PutUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if orgID != "" {
		if err := s.AddUserToOrganization(ctx, id, orgID, role); err != nil {
			return nil, err
		}
		return s.users.GetUser(ctx, id)
	}
	return u, nil
}

// AddUserToOrganization joins userID to orgID with role and derives its permissions.
func (s *Service) AddUserToOrganization(ctx context.Context, userID, orgID string, role domain.Role) error {
	org, err := s.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	u.OrganizationID = orgID
	u.Role = role
	u.Permissions = domain.RolePermissions(role)
	if err := s.users.PutUser(ctx, u); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if role != domain.RoleClient && !org.HasEmployee(userID) {
		org.Employees = append(org.Employees, userID)
		org.UpdatedAt = s.now()
		if err := s.orgs.PutOrganization(ctx, org); err != nil {
			return fmt.Errorf("failed to update organization: %w", err)
		}
	}
	s.logger.Info("user joined organization", "org_id", orgID, "user_id", userID, "role", role)
	return nil
}

// RemoveUserFromOrganization detaches userID and clears its permissions.
// The owner cannot be removed.
func (s *Service) RemoveUserFromOrganization(ctx context.Context, userID, orgID string) error {
	org, err := s.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if org.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot leave the organization", domain.ErrPermissionDenied)
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.OrganizationID != orgID {
		return fmt.Errorf("%w: %s is not a member of %s", domain.ErrUserNotFound, userID, orgID)
	}

	u.OrganizationID = ""
	u.Permissions = []domain.Permission{}
	if err := s.users.PutUser(ctx, u); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	kept := org.Employees[:0]
	for _, id := range org.Employees {
		if id != userID {
			kept = append(kept, id)
		}
	}
	org.Employees = kept
	org.UpdatedAt = s.now()
	return s.orgs.PutOrganization(ctx, org)
}

// Employees returns the owner and employees of orgID.
func (s *Service) Employees(ctx context.Context, orgID string) ([]*domain.UserProfile, error) {
	return s.membersWithRole(ctx, orgID, domain.RoleBusinessOwner, domain.RoleEmployee)
}

// Members returns the client-role users of orgID.
func (s *Service) Members(ctx context.Context, orgID string) ([]*domain.UserProfile, error) {
	return s.membersWithRole(ctx, orgID, domain.RoleClient)
}

func (s *Service) membersWithRole(ctx context.Context, orgID string, roles ...domain.Role) ([]*domain.UserProfile, error) {
	users, err := s.users.ListUsersByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*domain.UserProfile, 0, len(users))
	for _, u := range users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

// HasPermission reports whether userID holds p. Unknown users hold nothing.
func (s *Service) HasPermission(ctx context.Context, userID string, p domain.Permission) (bool, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.HasPermission(p), nil
}

// UpdatePermissions replaces the permissions of userID.
func (s *Service) UpdatePermissions(ctx context.Context, userID string, perms []domain.Permission) error {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	u.Permissions = append([]domain.Permission{}, perms...)
	return s.users.PutUser(ctx, u)
}

// UpdateSettings merges patch into the organization settings.
func (s *Service) UpdateSettings(ctx context.Context, orgID string, patch domain.SettingsPatch) (*domain.Organization, error) {
	org, err := s.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if patch.AllowClientSelfRegistration != nil {
		org.Settings.AllowClientSelfRegistration = *patch.AllowClientSelfRegistration
	}
	if patch.RequireEmployeeApproval != nil {
		org.Settings.RequireEmployeeApproval = *patch.RequireEmployeeApproval
	}
	if patch.DefaultEmployeePermissions != nil {
		org.Settings.DefaultEmployeePermissions = append([]domain.Permission{}, patch.DefaultEmployeePermissions...)
	}
	org.UpdatedAt = s.now()
	if err := s.orgs.PutOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// GenerateJoinCode builds a code of the form ORG4-XXXX from the organization id.
func (s *Service) GenerateJoinCode(orgID string) string {
	prefix := orgID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	suffix := strings.ReplaceAll(s.newID(), "-", "")
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return strings.ToUpper(prefix + "-" + suffix)
}

// JoinByCode adds userID with role to the organization owning code.
func (s *Service) JoinByCode(ctx context.Context, code, userID string, role domain.Role) (*domain.Organization, error) {
	org, err := s.orgs.FindByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if err := s.AddUserToOrganization(ctx, userID, org.ID, role); err != nil {
		return nil, err
	}
	return s.orgs.GetOrganization(ctx, org.ID)
}

// ValidateUserAccess reports whether userID belongs to orgID.
func (s *Service) ValidateUserAccess(ctx context.Context, userID, orgID string) bool {
	u, err := s.users.GetUser(ctx, userID)
	return err == nil && u.OrganizationID == orgID
}

// UserRole returns the role of userID inside orgID, or "" when it is not a member.
func (s *Service) UserRole(ctx context.Context, userID, orgID string) domain.Role {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil || u.OrganizationID != orgID {
		return ""
	}
	return u.Role
}
