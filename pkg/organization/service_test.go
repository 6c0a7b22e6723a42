package organization_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/pkg/adapters/memory"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/organization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *organization.Service
	dir   *memory.Directory
	clock *time.Time
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := memory.NewDirectory()
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	n := 0
	svc := organization.NewService(dir, dir, dir,
		organization.WithClock(func() time.Time { return now }),
		organization.WithIDGenerator(func() string { n++; return fmt.Sprintf("abcd%d-ef", n) }),
	)
	return fixture{svc: svc, dir: dir, clock: &now}
}

func TestCreateOrganization(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner, err := f.svc.CreateUserProfile(ctx, "owner", "o@example.com", "Ali Husni", domain.RoleBusinessOwner, "")
	require.NoError(t, err)
	assert.Len(t, owner.Permissions, 8, "owners hold every permission even without an organization")
	assert.Equal(t, "Ali", owner.Profile.FirstName)
	assert.Equal(t, "Husni", owner.Profile.LastName)

	org, err := f.svc.CreateOrganization(ctx, "Acme Brokerage", domain.OrgBrokerage, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner"}, org.Employees)
	assert.True(t, org.Settings.AllowClientSelfRegistration)
	assert.True(t, org.Settings.RequireEmployeeApproval)
	assert.Equal(t, domain.RolePermissions(domain.RoleEmployee), org.Settings.DefaultEmployeePermissions)
	assert.Regexp(t, `^[A-Z0-9]{4}-[A-Z0-9]{4}$`, org.JoinCode)

	u, err := f.dir.GetUser(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, org.ID, u.OrganizationID)

	_, err = f.svc.CreateOrganization(ctx, "", domain.OrgBrokerage, "owner")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateUserProfile_Permissions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	loner, err := f.svc.CreateUserProfile(ctx, "u1", "", "Solo", domain.RoleEmployee, "")
	require.NoError(t, err)
	assert.Empty(t, loner.Permissions, "employees outside an organization get nothing")

	require.NoError(t, f.dir.PutOrganization(ctx, &domain.Organization{ID: "org"}))
	member, err := f.svc.CreateUserProfile(ctx, "u2", "", "Member", domain.RoleEmployee, "org")
	require.NoError(t, err)
	assert.Equal(t, "org", member.OrganizationID)
	assert.ElementsMatch(t, domain.RolePermissions(domain.RoleEmployee), member.Permissions)

	emps, err := f.svc.Employees(ctx, "org")
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, "u2", emps[0].ID)
}

func TestMembership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.CreateUserProfile(ctx, "owner", "", "Owner", domain.RoleBusinessOwner, "")
	require.NoError(t, err)
	org, err := f.svc.CreateOrganization(ctx, "Acme", domain.OrgBrokerage, "owner")
	require.NoError(t, err)

	_, err = f.svc.CreateUserProfile(ctx, "emp", "", "Emp", domain.RoleEmployee, "")
	require.NoError(t, err)
	_, err = f.svc.CreateUserProfile(ctx, "cli", "", "Cli", domain.RoleClient, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.AddUserToOrganization(ctx, "emp", org.ID, domain.RoleEmployee))
	require.NoError(t, f.svc.AddUserToOrganization(ctx, "cli", org.ID, domain.RoleClient))

	ok, err := f.svc.HasPermission(ctx, "emp", domain.PermClientManagement)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = f.svc.HasPermission(ctx, "emp", domain.PermBillingAccess)
	assert.False(t, ok)

	emps, err := f.svc.Employees(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, emps, 2)
	members, err := f.svc.Members(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	assert.True(t, f.svc.ValidateUserAccess(ctx, "emp", org.ID))
	assert.Equal(t, domain.RoleEmployee, f.svc.UserRole(ctx, "emp", org.ID))
	assert.Equal(t, domain.Role(""), f.svc.UserRole(ctx, "emp", "elsewhere"))

	require.NoError(t, f.svc.RemoveUserFromOrganization(ctx, "emp", org.ID))
	u, _ := f.dir.GetUser(ctx, "emp")
	assert.Empty(t, u.Permissions)
	assert.False(t, f.svc.ValidateUserAccess(ctx, "emp", org.ID))
	o, _ := f.dir.GetOrganization(ctx, org.ID)
	assert.Equal(t, []string{"owner"}, o.Employees)

	err = f.svc.RemoveUserFromOrganization(ctx, "owner", org.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	require.NoError(t, f.svc.UpdatePermissions(ctx, "cli", []domain.Permission{domain.PermBillingAccess}))
	ok, _ = f.svc.HasPermission(ctx, "cli", domain.PermBillingAccess)
	assert.True(t, ok)

	_, err = f.svc.HasPermission(ctx, "ghost", domain.PermBillingAccess)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestInvites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.dir.PutOrganization(ctx, &domain.Organization{ID: "org"}))
	_, err := f.svc.CreateUserProfile(ctx, "newbie", "", "New Bie", domain.RoleClient, "")
	require.NoError(t, err)

	inv, err := f.svc.CreateInvite(ctx, "org", domain.RoleEmployee, "owner", "n@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(7*24*time.Hour), inv.ExpiresAt)
	assert.Equal(t, domain.RolePermissions(domain.RoleEmployee), inv.Permissions)

	require.NoError(t, f.svc.UseInvite(ctx, inv.ID, "newbie"))
	u, _ := f.dir.GetUser(ctx, "newbie")
	assert.Equal(t, "org", u.OrganizationID)
	assert.Equal(t, domain.RoleEmployee, u.Role)

	_, err = f.svc.GetInvite(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInviteInvalid, "used invites are inactive")
	assert.ErrorIs(t, f.svc.UseInvite(ctx, inv.ID, "newbie"), domain.ErrInviteInvalid)

	custom, err := f.svc.CreateInvite(ctx, "org", domain.RoleEmployee, "owner", "", []domain.Permission{domain.PermDashboardView})
	require.NoError(t, err)
	assert.Equal(t, []domain.Permission{domain.PermDashboardView}, custom.Permissions)

	_, err = f.svc.CreateInvite(ctx, "missing", domain.RoleEmployee, "owner", "", nil)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
}

func TestUseInvite_FailedRedemptionKeepsInvite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.dir.PutOrganization(ctx, &domain.Organization{ID: "org"}))
	_, err := f.svc.CreateUserProfile(ctx, "newbie", "", "New Bie", domain.RoleClient, "")
	require.NoError(t, err)

	inv, err := f.svc.CreateInvite(ctx, "org", domain.RoleEmployee, "owner", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.UseInvite(ctx, inv.ID, "typo-user"), domain.ErrUserNotFound)

	_, err = f.svc.GetInvite(ctx, inv.ID)
	require.NoError(t, err, "invite stays redeemable")
	require.NoError(t, f.svc.UseInvite(ctx, inv.ID, "newbie"))

	u, err := f.dir.GetUser(ctx, "newbie")
	require.NoError(t, err)
	assert.Equal(t, "org", u.OrganizationID)
}

func TestInviteExpiry(t *testing.T) {
	dir := memory.NewDirectory()
	ctx := context.Background()
	require.NoError(t, dir.PutOrganization(ctx, &domain.Organization{ID: "org"}))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := organization.NewService(dir, dir, dir, organization.WithClock(func() time.Time { return now }))
	inv, err := svc.CreateInvite(ctx, "org", domain.RoleClient, "owner", "", nil)
	require.NoError(t, err)

	now = now.Add(organization.InviteTTL + time.Minute)
	_, err = svc.GetInvite(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInviteInvalid)
}

func TestSettingsAndJoinCode(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.CreateUserProfile(ctx, "owner", "", "Owner", domain.RoleBusinessOwner, "")
	require.NoError(t, err)
	org, err := f.svc.CreateOrganization(ctx, "Acme", domain.OrgCareProvider, "owner")
	require.NoError(t, err)

	off := false
	updated, err := f.svc.UpdateSettings(ctx, org.ID, domain.SettingsPatch{RequireEmployeeApproval: &off})
	require.NoError(t, err)
	assert.False(t, updated.Settings.RequireEmployeeApproval)
	assert.True(t, updated.Settings.AllowClientSelfRegistration, "unset fields are kept")

	_, err = f.svc.CreateUserProfile(ctx, "joiner", "", "Joiner", domain.RoleEmployee, "")
	require.NoError(t, err)
	joined, err := f.svc.JoinByCode(ctx, " "+org.JoinCode+" ", "joiner", domain.RoleEmployee)
	require.NoError(t, err)
	assert.Contains(t, joined.Employees, "joiner")

	_, err = f.svc.JoinByCode(ctx, "NOPE-0000", "joiner", domain.RoleEmployee)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	assert.Equal(t, "ABCD-ABCD", f.svc.GenerateJoinCode("abcdef"))
}
