package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig_Defaults(t *testing.T) {
	cfg := ResolveConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "meterscope", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSamplingRate)
}

func TestResolveConfig_EnvOverrides(t *testing.T) {
	t.Setenv("METERSCOPE_OTEL_ENABLED", "true")
	t.Setenv("METERSCOPE_OTEL_ENDPOINT", "http://collector:4317")
	t.Setenv("METERSCOPE_OTEL_TRACE_SAMPLING_RATIO", "7")
	t.Setenv("METERSCOPE_OTEL_METRICS_ENABLED", "not-a-bool")

	cfg := ResolveConfig()
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSamplingRate)
}

func TestRedactAttributeValue(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactAttributeValue("KWDB_PASSWORD", "hunter2"))
	assert.Equal(t, "[REDACTED]", RedactAttributeValue("db.dsn", "postgres://"))
	assert.Equal(t, "rdb", RedactAttributeValue("db.namespace", "rdb"))
}

func TestSetup_DisabledExportIsUsable(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, "1.2.3")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	assert.Equal(t, "1.2.3", ActiveConfig().ServiceVersion)

	spanCtx, span := StartSpan(ctx, "test.span")
	defer span.End()
	assert.NotNil(t, spanCtx)

	RecordQueryExecution(ctx, "faultyMeters", "rdb", true, 3)
	RecordHTTPRequest(ctx, "GET", "/api/health", 200, 1)
}

func TestTraceFields_NoSpan(t *testing.T) {
	assert.Nil(t, TraceFields(context.Background()))
}
