package observability

import (
	"os"
	"strconv"
	"strings"
)

// Config controls OpenTelemetry export
type Config struct {
	Enabled           bool
	TracesEnabled     bool
	MetricsEnabled    bool
	ServiceName       string
	ServiceVersion    string
	Environment       string
	OTLPEndpoint      string
	TraceSamplingRate float64
}

// ResolveConfig builds the export configuration from METERSCOPE_OTEL_*
// variables. Export is off unless METERSCOPE_OTEL_ENABLED is true.
func ResolveConfig() Config {
	cfg := Config{
		Enabled:           false,
		TracesEnabled:     true,
		MetricsEnabled:    true,
		ServiceName:       "meterscope",
		ServiceVersion:    "dev",
		Environment:       "development",
		OTLPEndpoint:      "localhost:4317",
		TraceSamplingRate: 1.0,
	}

	overrideBool("METERSCOPE_OTEL_ENABLED", &cfg.Enabled)
	overrideBool("METERSCOPE_OTEL_TRACES_ENABLED", &cfg.TracesEnabled)
	overrideBool("METERSCOPE_OTEL_METRICS_ENABLED", &cfg.MetricsEnabled)
	overrideString("METERSCOPE_OTEL_SERVICE_NAME", &cfg.ServiceName)
	overrideString("METERSCOPE_OTEL_ENVIRONMENT", &cfg.Environment)
	overrideString("METERSCOPE_OTEL_ENDPOINT", &cfg.OTLPEndpoint)
	overrideFloat("METERSCOPE_OTEL_TRACE_SAMPLING_RATIO", &cfg.TraceSamplingRate)

	cfg.TraceSamplingRate = min(max(cfg.TraceSamplingRate, 0), 1)
	cfg.OTLPEndpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.OTLPEndpoint, "http://"), "https://")

	return cfg
}

func overrideString(name string, target *string) {
	if value := os.Getenv(name); value != "" {
		*target = value
	}
}

func overrideBool(name string, target *bool) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err == nil {
		*target = parsed
	}
}

func overrideFloat(name string, target *float64) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err == nil {
		*target = parsed
	}
}
