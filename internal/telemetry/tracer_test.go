package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracer("brokerdesk-test", "v0.0.1", &buf, logging.NewNop())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "move-client")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "move-client")
	assert.Contains(t, buf.String(), "brokerdesk-test")
}
