package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunClientStoreContract runs a suite of tests to verify that a ClientStore implementation
// adheres to the defined interface contract.
func RunClientStoreContract(t *testing.T, store ClientStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")
	orgA := "org-a-" + suffix
	orgB := "org-b-" + suffix

	newClient := func(id, org string) *domain.Client {
		return &domain.Client{
			ID:             id,
			OrganizationID: org,
			PersonalInfo: domain.PersonalInfo{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     id + "@example.com",
			},
			Status:        domain.ClientActive,
			PipelineStage: domain.StageLeadIntake,
			Timeline: []domain.TimelineEvent{{
				ID:       "evt-" + id,
				ClientID: id,
				Type:     domain.EventStageMoved,
				Title:    "Moved to Client Onboarding",
				Author:   domain.SystemAuthor,
				Date:     time.Now().UTC().Truncate(time.Millisecond),
				StageMoved: &domain.StageMovedDetail{
					From: domain.StageLeadIntake,
					To:   domain.StageClientOnboarding,
				},
			}},
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
			UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("Put and Get", func(t *testing.T) {
		c := newClient("c1-"+suffix, orgA)
		require.NoError(t, store.Put(ctx, c), "Put should not return error")
		assert.Equal(t, int64(1), c.Version, "Put should bump the version")

		loaded, err := store.Get(ctx, orgA, c.ID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, c.PipelineStage, loaded.PipelineStage)
		assert.Equal(t, c.PersonalInfo.Email, loaded.PersonalInfo.Email)
		assert.Equal(t, int64(1), loaded.Version)
		require.Len(t, loaded.Timeline, 1)
		require.NotNil(t, loaded.Timeline[0].StageMoved, "timeline detail should survive a round trip")
		assert.Equal(t, domain.StageClientOnboarding, loaded.Timeline[0].StageMoved.To)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, orgA, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})

	t.Run("Get From Another Organization", func(t *testing.T) {
		c := newClient("c2-"+suffix, orgA)
		require.NoError(t, store.Put(ctx, c))

		_, err := store.Get(ctx, orgB, c.ID)
		assert.ErrorIs(t, err, domain.ErrClientNotFound, "clients must not leak across organizations")
	})

	t.Run("Returned Copies Are Detached", func(t *testing.T) {
		c := newClient("c3-"+suffix, orgA)
		require.NoError(t, store.Put(ctx, c))

		loaded, err := store.Get(ctx, orgA, c.ID)
		require.NoError(t, err)
		loaded.PipelineStage = domain.StageCompleted

		again, err := store.Get(ctx, orgA, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageLeadIntake, again.PipelineStage)
	})

	t.Run("Stale Version Is Rejected", func(t *testing.T) {
		c := newClient("c4-"+suffix, orgA)
		require.NoError(t, store.Put(ctx, c))

		first, err := store.Get(ctx, orgA, c.ID)
		require.NoError(t, err)
		second, err := store.Get(ctx, orgA, c.ID)
		require.NoError(t, err)

		first.PipelineStage = domain.StageClientOnboarding
		require.NoError(t, store.Put(ctx, first))

		second.PipelineStage = domain.StageCompleted
		err = store.Put(ctx, second)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)

		stored, err := store.Get(ctx, orgA, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageClientOnboarding, stored.PipelineStage, "rejected write must not be applied")
		assert.Equal(t, int64(2), stored.Version)
	})

	t.Run("Duplicate Create Is Rejected", func(t *testing.T) {
		c := newClient("c5-"+suffix, orgA)
		require.NoError(t, store.Put(ctx, c))

		dup := newClient(c.ID, orgA)
		assert.ErrorIs(t, store.Put(ctx, dup), domain.ErrConcurrentModification)
	})

	t.Run("Concurrent Writers", func(t *testing.T) {
		c := newClient("c6-"+suffix, orgA)
		require.NoError(t, store.Put(ctx, c))

		const writers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cp := c.Clone()
				if err := store.Put(ctx, cp); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins, "exactly one writer holding the same version may win")
	})

	t.Run("ListByOrganization", func(t *testing.T) {
		listOrg := "org-list-" + suffix
		require.NoError(t, store.Put(ctx, newClient("l1-"+suffix, listOrg)))
		require.NoError(t, store.Put(ctx, newClient("l2-"+suffix, listOrg)))
		require.NoError(t, store.Put(ctx, newClient("l3-"+suffix, orgB)))

		list, err := store.ListByOrganization(ctx, listOrg)
		require.NoError(t, err)
		ids := make([]string, 0, len(list))
		for _, c := range list {
			assert.Equal(t, listOrg, c.OrganizationID)
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []string{"l1-" + suffix, "l2-" + suffix}, ids)

		empty, err := store.ListByOrganization(ctx, "org-empty-"+suffix)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

// RunDirectoryContract verifies that a Directory implementation round-trips
// organizations, users and invites and reports the right not-found errors.
func RunDirectoryContract(t *testing.T, dir Directory) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")
	orgID := "org-" + suffix
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("Organization Round Trip", func(t *testing.T) {
		org := &domain.Organization{
			ID:        orgID,
			Name:      "Acme Brokerage",
			Type:      domain.OrgBrokerage,
			OwnerID:   "owner-" + suffix,
			Employees: []string{"owner-" + suffix},
			JoinCode:  "ABCD-" + suffix,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, dir.PutOrganization(ctx, org))

		loaded, err := dir.GetOrganization(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Brokerage", loaded.Name)
		assert.Equal(t, []string{"owner-" + suffix}, loaded.Employees)

		loaded.Name = "Renamed"
		loaded.Employees = append(loaded.Employees, "emp-"+suffix)
		require.NoError(t, dir.PutOrganization(ctx, loaded))

		again, err := dir.GetOrganization(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", again.Name)
		assert.Len(t, again.Employees, 2)
	})

	t.Run("Organization Not Found", func(t *testing.T) {
		_, err := dir.GetOrganization(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})

	t.Run("FindByJoinCode", func(t *testing.T) {
		org, err := dir.FindByJoinCode(ctx, "ABCD-"+suffix)
		require.NoError(t, err)
		assert.Equal(t, orgID, org.ID)

		_, err = dir.FindByJoinCode(ctx, "NOPE-"+suffix)
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

		org.JoinCode = "WXYZ-" + suffix
		require.NoError(t, dir.PutOrganization(ctx, org))
		_, err = dir.FindByJoinCode(ctx, "ABCD-"+suffix)
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound, "a replaced join code must stop resolving")
	})

	t.Run("Users", func(t *testing.T) {
		for _, id := range []string{"u2-" + suffix, "u1-" + suffix} {
			require.NoError(t, dir.PutUser(ctx, &domain.UserProfile{
				ID:             id,
				Email:          id + "@example.com",
				Role:           domain.RoleEmployee,
				OrganizationID: orgID,
				Permissions:    []domain.Permission{domain.PermDashboardView},
				IsActive:       true,
			}))
		}
		require.NoError(t, dir.PutUser(ctx, &domain.UserProfile{ID: "other-" + suffix, OrganizationID: "elsewhere-" + suffix}))

		u, err := dir.GetUser(ctx, "u1-"+suffix)
		require.NoError(t, err)
		assert.Equal(t, []domain.Permission{domain.PermDashboardView}, u.Permissions)

		_, err = dir.GetUser(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		list, err := dir.ListUsersByOrganization(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "u1-"+suffix, list[0].ID, "users are ordered by id")

		u.OrganizationID = ""
		require.NoError(t, dir.PutUser(ctx, u))
		list, err = dir.ListUsersByOrganization(ctx, orgID)
		require.NoError(t, err)
		assert.Len(t, list, 1, "a user leaving the organization drops out of its listing")
	})

	t.Run("Invites", func(t *testing.T) {
		inv := &domain.InviteLink{
			ID:             "inv-" + suffix,
			OrganizationID: orgID,
			Role:           domain.RoleEmployee,
			CreatedAt:      now,
			ExpiresAt:      now.Add(time.Hour),
			IsActive:       true,
		}
		require.NoError(t, dir.PutInvite(ctx, inv))

		loaded, err := dir.GetInvite(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, loaded.IsActive)
		assert.True(t, loaded.ExpiresAt.Equal(inv.ExpiresAt))

		used := now
		loaded.UsedAt = &used
		loaded.IsActive = false
		require.NoError(t, dir.PutInvite(ctx, loaded))
		again, err := dir.GetInvite(ctx, inv.ID)
		require.NoError(t, err)
		assert.False(t, again.IsActive)
		require.NotNil(t, again.UsedAt)

		_, err = dir.GetInvite(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrInviteInvalid)
	})
}
