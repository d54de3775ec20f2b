package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_WiresLoggerTracerAndMeter(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("ENVIRONMENT", "test")

	var logs bytes.Buffer
	exporter := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	ctx := context.Background()

	instruments, shutdown, err := Init(ctx, "petfinder-test",
		WithLogWriter(&logs),
		WithSpanExporter(exporter),
		WithMetricReader(reader),
	)
	require.NoError(t, err)

	instruments.Logger.Info("dropped below level")
	instruments.Logger.Warn("kept", "pet.id", 7)

	_, span := instruments.Tracer("test").Start(ctx, "pets.Register")
	span.End()

	counter, err := instruments.Meter("test").Int64Counter("pets.registry.registered")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	env, ok := rm.Resource.Set().Value("deployment.environment")
	require.True(t, ok)
	assert.Equal(t, "test", env.AsString())

	provider, ok := instruments.TracerProvider.(*sdktrace.TracerProvider)
	require.True(t, ok)
	require.NoError(t, provider.ForceFlush(ctx))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "pets.Register", spans[0].Name)
	require.NoError(t, shutdown(ctx))

	var kept map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.NotEqual(t, "dropped below level", entry["msg"])
		if entry["msg"] == "kept" {
			kept = entry
		}
	}
	require.NotNil(t, kept)
	assert.Equal(t, "WARN", kept["level"])
	assert.EqualValues(t, 7, kept["pet.id"])
}

func TestInstruments_NilFallsBackToNoop(t *testing.T) {
	var instruments *Instruments
	assert.NotNil(t, instruments.Tracer("x"))
	assert.NotNil(t, instruments.Meter("x"))
}
