package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefinitions(t *testing.T) {
	require.NoError(t, validateDefinitions(stage.DefaultPipelines()))

	err := validateDefinitions([]domain.CustomPipeline{{
		ID:         "broken",
		EntryStage: "a",
		Stages: []domain.StageConfig{
			{ID: "a", Order: 1, AllowedTransitions: []domain.Stage{"ghost"}},
			{ID: "island", Order: 2},
		},
	}})
	require.Error(t, err)
	var ve *stage.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, p := range ve.Problems {
		assert.Contains(t, p, "broken: ")
	}
}

func TestValidateCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipelines:
  - id: intake-only
    entry_stage: call
    stages:
      - id: call
        order: 1
        allowed_transitions: [closed]
      - id: closed
        order: 2
`), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "1 pipelines are valid!")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "brokerdesk version "+version())
}
