package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestTransitionError(t *testing.T) {
	illegal := &domain.TransitionError{From: domain.StageLeadIntake, To: domain.StageCompleted}
	assert.ErrorIs(t, illegal, domain.ErrIllegalTransition)
	assert.NotErrorIs(t, illegal, domain.ErrInvalidStage)
	assert.Equal(t, "illegal transition lead-intake -> completed", illegal.Error())

	unknown := &domain.TransitionError{
		From:   domain.StageLeadIntake,
		To:     "ghost",
		Reason: fmt.Errorf("%w: %q", domain.ErrInvalidStage, "ghost"),
	}
	wrapped := fmt.Errorf("move: %w", unknown)
	assert.ErrorIs(t, wrapped, domain.ErrIllegalTransition)
	assert.ErrorIs(t, wrapped, domain.ErrInvalidStage)

	var te *domain.TransitionError
	assert.True(t, errors.As(wrapped, &te))
	assert.Equal(t, domain.Stage("ghost"), te.To)
}

func TestRolePermissions_ReturnsCopy(t *testing.T) {
	owner := domain.RolePermissions(domain.RoleBusinessOwner)
	assert.Len(t, owner, 8)
	owner[0] = "tampered"

	assert.Equal(t, domain.PermDashboardView, domain.RolePermissions(domain.RoleBusinessOwner)[0])
	assert.Len(t, domain.RolePermissions(domain.RoleEmployee), 4)
	assert.ElementsMatch(t,
		[]domain.Permission{domain.PermDashboardView, domain.PermDocumentAccess},
		domain.RolePermissions(domain.RoleClient))
	assert.Empty(t, domain.RolePermissions("stranger"))
}

func TestClient_Clone(t *testing.T) {
	c := &domain.Client{
		ID:       "c1",
		Timeline: []domain.TimelineEvent{{ID: "e1"}},
		Case:     domain.ClientCase{Notes: []domain.CaseNote{{ID: "n1"}}},
		PersonalInfo: domain.PersonalInfo{
			EmergencyContact: &domain.EmergencyContact{Name: "Mo"},
		},
	}
	cp := c.Clone()
	cp.Timeline[0].ID = "changed"
	cp.Case.Notes[0].ID = "changed"
	cp.PersonalInfo.EmergencyContact.Name = "changed"

	assert.Equal(t, "e1", c.Timeline[0].ID)
	assert.Equal(t, "n1", c.Case.Notes[0].ID)
	assert.Equal(t, "Mo", c.PersonalInfo.EmergencyContact.Name)
	assert.Nil(t, (*domain.Client)(nil).Clone())
}

func TestPersonalInfo_DisplayName(t *testing.T) {
	assert.Equal(t, "Full", domain.PersonalInfo{FullName: "Full", FirstName: "A"}.DisplayName())
	assert.Equal(t, "Ada Lovelace", domain.PersonalInfo{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", domain.PersonalInfo{FirstName: "Ada"}.DisplayName())
}

func TestInviteLink_Valid(t *testing.T) {
	now := time.Now()
	inv := &domain.InviteLink{IsActive: true, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, inv.Valid(now))
	assert.False(t, inv.Valid(now.Add(2*time.Hour)))
	inv.IsActive = false
	assert.False(t, inv.Valid(now))
}
