package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/config"
)

func TestInitTracer_None(t *testing.T) {
	tracer, shutdown, err := InitTracer("draft-two", config.TelemetryConfig{Exporter: "none"})
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "batch.run")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_StdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, shutdown, err := initTracer("draft-two", config.TelemetryConfig{Exporter: "stdout"}, &buf)
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "batch.poll")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "batch.poll")
	assert.Contains(t, buf.String(), "draft-two")
}

func TestInitTracer_UnknownExporter(t *testing.T) {
	_, _, err := InitTracer("draft-two", config.TelemetryConfig{Exporter: "zipkin"})
	assert.Error(t, err)
}
