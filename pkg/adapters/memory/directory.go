package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// Directory implements ports.OrganizationStore, ports.UserStore and
// ports.InviteStore in memory.
type Directory struct {
	mu      sync.RWMutex
	orgs    map[string]domain.Organization
	users   map[string]domain.UserProfile
	invites map[string]domain.InviteLink
}

func NewDirectory() *Directory {
	return &Directory{
		orgs:    make(map[string]domain.Organization),
		users:   make(map[string]domain.UserProfile),
		invites: make(map[string]domain.InviteLink),
	}
}

func (d *Directory) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	org, ok := d.orgs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrganizationNotFound, id)
	}
	return cloneOrg(org), nil
}

func (d *Directory) PutOrganization(ctx context.Context, org *domain.Organization) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orgs[org.ID] = *cloneOrg(*org)
	return nil
}

func (d *Directory) FindByJoinCode(ctx context.Context, code string) (*domain.Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, org := range d.orgs {
		if code != "" && org.JoinCode == code {
			return cloneOrg(org), nil
		}
	}
	return nil, fmt.Errorf("%w: join code %s", domain.ErrOrganizationNotFound, code)
}

func (d *Directory) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	u.Permissions = append([]domain.Permission(nil), u.Permissions...)
	return &u, nil
}

func (d *Directory) PutUser(ctx context.Context, user *domain.UserProfile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := *user
	u.Permissions = append([]domain.Permission(nil), user.Permissions...)
	d.users[u.ID] = u
	return nil
}

func (d *Directory) ListUsersByOrganization(ctx context.Context, orgID string) ([]*domain.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*domain.UserProfile
	for _, u := range d.users {
		if u.OrganizationID == orgID {
			u.Permissions = append([]domain.Permission(nil), u.Permissions...)
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	inv, ok := d.invites[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInviteInvalid, id)
	}
	inv.Permissions = append([]domain.Permission(nil), inv.Permissions...)
	return &inv, nil
}

func (d *Directory) PutInvite(ctx context.Context, invite *domain.InviteLink) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	inv := *invite
	inv.Permissions = append([]domain.Permission(nil), invite.Permissions...)
	d.invites[inv.ID] = inv
	return nil
}

func cloneOrg(o domain.Organization) *domain.Organization {
	o.Employees = append([]string(nil), o.Employees...)
	o.Clients = append([]string(nil), o.Clients...)
	o.Settings.DefaultEmployeePermissions = append([]domain.Permission(nil), o.Settings.DefaultEmployeePermissions...)
	return &o
}
