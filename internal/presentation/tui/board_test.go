package tui

import (
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard() *clients.Board {
	updated := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	return &clients.Board{
		PipelineID: "disability-services",
		Name:       "Disability Services",
		Columns: []clients.Column{
			{
				Stage: domain.StageConfig{ID: domain.StageLeadIntake, Title: "Lead Intake", Description: "Initial contact"},
				Clients: []*domain.Client{{
					ID:           "c1",
					PersonalInfo: domain.PersonalInfo{FullName: "Ana | Costa"},
					Status:       domain.ClientActive,
					UpdatedAt:    updated,
				}},
			},
			{Stage: domain.StageConfig{ID: domain.StageCompleted, Title: "Completed"}},
		},
	}
}

func TestBoardMarkdown(t *testing.T) {
	md := BoardMarkdown(sampleBoard())

	assert.Contains(t, md, "# Disability Services")
	assert.Contains(t, md, "1 active clients")
	assert.Contains(t, md, "## Lead Intake (1)")
	assert.Contains(t, md, "_Initial contact_")
	assert.Contains(t, md, `| Ana \| Costa | active | - | 2025-03-04 |`)
	assert.Contains(t, md, "## Completed (0)\n\nNo clients.")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer("notty")
	require.NoError(t, err)

	out, err := render(BoardMarkdown(sampleBoard()))
	require.NoError(t, err)
	assert.Contains(t, out, "Lead Intake")
	assert.Contains(t, out, "Completed")
}
