package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/ftzflow/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"

	obslogger "github.com/smallbiznis/ftzflow/internal/observability/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "")
	t.Setenv("DATABASE_SLOW_QUERY_MS", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := LoadConfig(config.Config{
		Environment:  "production",
		OTLPEndpoint: "collector:4317",
		Logger:       config.LoggerConfig{Level: "INFO", Format: "json"},
	})

	assert.Equal(t, "ftzflow", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, "collector:4317", cfg.OtelExporterEndpoint)
	assert.Equal(t, 0.1, cfg.OtelSamplingRatio)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP/protobuf")
	t.Setenv("OTEL_SAMPLING_RATIO", "3")
	t.Setenv("DATABASE_SLOW_QUERY_MS", "50")
	t.Setenv("DEPLOYMENT_ENV", "local")

	cfg := LoadConfig(config.Config{Environment: "production"})

	assert.Equal(t, "http/protobuf", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.Equal(t, 50*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, "local", cfg.Environment)
	assert.True(t, cfg.Debug())
}

func TestProvideGormLoggerFollowsDebug(t *testing.T) {
	quiet := provideGormLogger(Config{Environment: "production"}).(*obslogger.GormLogger)
	verbose := provideGormLogger(Config{LogLevel: "debug"}).(*obslogger.GormLogger)

	assert.NotNil(t, quiet)
	assert.NotNil(t, verbose)
	assert.Equal(t, gormlogger.Warn, quiet.Level())
	assert.Equal(t, gormlogger.Info, verbose.Level())
}
