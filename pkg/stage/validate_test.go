package stage_test

import (
	"errors"
	"testing"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   domain.Stage
		configs []domain.StageConfig
		wantErr string
	}{
		{
			name:  "valid with cycle",
			entry: "a",
			configs: []domain.StageConfig{
				{ID: "a", AllowedTransitions: []domain.Stage{"b"}},
				{ID: "b", AllowedTransitions: []domain.Stage{"a", "c"}},
				{ID: "c"},
			},
		},
		{
			name:  "broken link",
			entry: "a",
			configs: []domain.StageConfig{
				{ID: "a", AllowedTransitions: []domain.Stage{"ghost"}},
			},
			wantErr: "unknown destination 'ghost'",
		},
		{
			name:  "unreachable stage",
			entry: "a",
			configs: []domain.StageConfig{
				{ID: "a"},
				{ID: "island"},
			},
			wantErr: "'island' is unreachable",
		},
		{
			name:    "missing entry",
			entry:   "start",
			configs: []domain.StageConfig{{ID: "a"}},
			wantErr: "entry stage 'start' not found",
		},
		{
			name:  "duplicate id",
			entry: "a",
			configs: []domain.StageConfig{
				{ID: "a"},
				{ID: "a"},
			},
			wantErr: "duplicate stage 'a'",
		},
		{
			name:    "empty",
			entry:   "a",
			wantErr: "no stages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := stage.Validate(tt.entry, tt.configs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verr *stage.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestValidate_DefaultPipelines(t *testing.T) {
	for _, p := range stage.DefaultPipelines() {
		assert.NoError(t, stage.Validate(p.EntryStage, p.Stages), p.ID)
	}
}

func TestNew_RejectsInvalidGraph(t *testing.T) {
	_, err := stage.New("a", []domain.StageConfig{
		{ID: "a", AllowedTransitions: []domain.Stage{"b"}},
	})
	assert.Error(t, err)
}
