// ABOUTME: Tests for the disabled/enabled tracer paths and the hand-rolled writer exporter
// ABOUTME: Shutdown forces the batch span processor to flush before assertions run

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerDisabledIsANoop(t *testing.T) {
	var buf bytes.Buffer
	tracer, shutdown, err := NewTracer(Config{Enabled: false}, &buf)
	require.NoError(t, err)
	require.NotNil(t, tracer)

	_, span := StartPhase(context.Background(), tracer, "Building edge indexes")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Empty(t, buf.String())
}

func TestNewTracerEnabledWritesSpansToTheExporter(t *testing.T) {
	var buf bytes.Buffer
	tracer, shutdown, err := NewTracer(Config{Enabled: true, ServiceName: "heapsnap-test", SampleRatio: 1.0}, &buf)
	require.NoError(t, err)

	_, span := StartPhase(context.Background(), tracer, "Building retainers")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `span="Building retainers"`)
	assert.Contains(t, out, "trace=")
}

func TestNewTracerDefaultsSampleRatioWhenUnset(t *testing.T) {
	var buf bytes.Buffer
	tracer, shutdown, err := NewTracer(Config{Enabled: true}, &buf)
	require.NoError(t, err)

	_, span := StartPhase(context.Background(), tracer, "Done")
	span.End()
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `span="Done"`)
}
