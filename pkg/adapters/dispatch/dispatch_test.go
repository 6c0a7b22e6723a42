package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *domain.Client {
	return &domain.Client{
		ID:             "c1",
		OrganizationID: "org-1",
		PersonalInfo:   domain.PersonalInfo{FullName: "Ann Lee", Email: "ann@example.com"},
		PipelineStage:  domain.StageLeadIntake,
	}
}

func TestDescribe(t *testing.T) {
	c := testClient()
	assert.Equal(t, "Sending intake form to ann@example.com", Describe("send-intake-form", c))
	assert.Equal(t, "Creating budget for Ann Lee", Describe("create-budget", c))
	assert.Equal(t, "Submitting budget to Fiscal Intermediary", Describe("submit-to-fi", c))
	assert.Equal(t, "Running action ping for Ann Lee", Describe("ping", c))
}

func TestLogDispatcher(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogDispatcher(logging.NewJSON(&buf, slog.LevelInfo))

	require.NoError(t, d.Dispatch(context.Background(), "send-intake-form", testClient()))

	out := buf.String()
	assert.Contains(t, out, "Sending intake form to ann@example.com")
	assert.Contains(t, out, `"action":"send-intake-form"`)
	assert.Contains(t, out, `"client_id":"c1"`)

	assert.NoError(t, NewLogDispatcher(nil).Dispatch(context.Background(), "x", testClient()))
}

type fn func(context.Context, string, *domain.Client) error

func (f fn) Dispatch(ctx context.Context, a string, c *domain.Client) error { return f(ctx, a, c) }

func TestMulti(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	m := Multi{
		fn(func(_ context.Context, a string, _ *domain.Client) error { calls = append(calls, "a:"+a); return boom }),
		nil,
		fn(func(_ context.Context, a string, _ *domain.Client) error { calls = append(calls, "b:"+a); return nil }),
	}

	err := m.Dispatch(context.Background(), "create-budget", testClient())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:create-budget", "b:create-budget"}, calls)

	assert.NoError(t, Multi{}.Dispatch(context.Background(), "x", testClient()))
}

func TestRegistry_Dispatch(t *testing.T) {
	var got []string
	fallback := NewRegistry(nil)
	fallback.Register("schedule-meeting", func(ctx context.Context, c *domain.Client) error {
		got = append(got, "fallback:"+c.ID)
		return nil
	})

	r := NewRegistry(fallback)
	r.Register("create-budget", func(ctx context.Context, c *domain.Client) error {
		got = append(got, "budget:"+c.ID)
		return nil
	})
	r.Register("submit-to-fi", func(ctx context.Context, c *domain.Client) error {
		return errors.New("fi offline")
	})

	ctx := context.Background()
	require.NoError(t, r.Dispatch(ctx, "create-budget", testClient()))
	require.NoError(t, r.Dispatch(ctx, "schedule-meeting", testClient()))
	assert.EqualError(t, r.Dispatch(ctx, "submit-to-fi", testClient()), "fi offline")
	assert.EqualError(t, r.Dispatch(ctx, "unknown", testClient()), "action not found: unknown")

	assert.Equal(t, []string{"budget:c1", "fallback:c1"}, got)
	assert.Equal(t, []string{"create-budget", "submit-to-fi"}, r.Actions())
}
