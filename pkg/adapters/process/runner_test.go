package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ actions []string }

func (r *recorder) Dispatch(_ context.Context, action string, _ *domain.Client) error {
	r.actions = append(r.actions, action)
	return nil
}

func client() *domain.Client {
	return &domain.Client{
		ID:             "c1",
		OrganizationID: "org",
		PersonalInfo:   domain.PersonalInfo{FullName: "Joshua Burt", Email: "josh@example.com"},
		PipelineStage:  domain.StageClientOnboarding,
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out := filepath.Join(t.TempDir(), "out.txt")

	d := NewDispatcher(WithRegistry(map[string]ActionConfig{
		"send-broker-agreement": {
			Command:     "sh",
			Args:        []string{"-c", `echo "$BROKERDESK_ACTION $BROKERDESK_CLIENT_EMAIL $BROKERDESK_CLIENT_STAGE" > "$OUT"`},
			Environment: map[string]string{"OUT": out},
		},
	}))

	require.NoError(t, d.Dispatch(context.Background(), "send-broker-agreement", client()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "send-broker-agreement josh@example.com client-onboarding", strings.TrimSpace(string(data)))
}

func TestDispatcher_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	d := NewDispatcher()
	d.Register("boom", "sh", "-c", "echo nope >&2; exit 3")

	err := d.Dispatch(context.Background(), "boom", client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestDispatcher_Unregistered(t *testing.T) {
	d := NewDispatcher()
	err := d.Dispatch(context.Background(), "hacker_script", client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	rec := &recorder{}
	d = NewDispatcher(WithFallback(rec))
	require.NoError(t, d.Dispatch(context.Background(), "send-intake-form", client()))
	assert.Equal(t, []string{"send-intake-form"}, rec.actions)
}

func TestClientEnv(t *testing.T) {
	env := clientEnv("create-budget", client())
	assert.Contains(t, env, "BROKERDESK_CLIENT_ID=c1")
	assert.Contains(t, env, "BROKERDESK_CLIENT_NAME=Joshua Burt")
	assert.Contains(t, env, "BROKERDESK_ACTION=create-budget")
}

func TestLoadActions(t *testing.T) {
	dir := t.TempDir()

	missing, err := LoadActions(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	path := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
actions:
  - name: send-intake-form
    command: ./scripts/intake.sh
    args: ["--quiet"]
    env:
      SMTP_HOST: localhost
  - name: incomplete
`), 0o644))

	actions, err := LoadActions(path)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "./scripts/intake.sh", actions["send-intake-form"].Command)
	assert.Equal(t, "localhost", actions["send-intake-form"].Environment["SMTP_HOST"])

	jsonPath := filepath.Join(dir, "actions.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"actions":[{"name":"a","command":"true"}]}`), 0o644))
	actions, err = LoadActions(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, actions, "a")

	d := NewDispatcher(WithRegistry(actions))
	assert.Equal(t, []string{"a"}, d.Actions())
}
