package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	StageTransitionsTotal           = "ftzflow_stage_transitions_total"
	SignoffsTotal                   = "ftzflow_signoffs_total"
	EntrySummariesTotal             = "ftzflow_entry_summaries_total"
	EntrySummaryRollbacksTotal      = "ftzflow_entry_summary_rollbacks_total"
	InventoryDecrementFailuresTotal = "ftzflow_inventory_decrement_failures_total"
	EntrySummaryBuildSeconds        = "ftzflow_entry_summary_build_seconds"

	exportInterval = 10 * time.Second
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics holds the workflow instruments. A nil *Metrics records nothing.
type Metrics struct {
	stageTransitions  metric.Int64Counter
	signoffs          metric.Int64Counter
	entrySummaries    metric.Int64Counter
	rollbacks         metric.Int64Counter
	decrementFailures metric.Int64Counter
	buildDuration     metric.Float64Histogram
}

// NewProvider returns a noop provider unless OTLP export is enabled.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	log.Info("metrics export enabled",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New registers the workflow instruments on the provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "ftzflow"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.stageTransitions, StageTransitionsTotal, "Preshipment stage changes by edge."},
		{&m.signoffs, SignoffsTotal, "Driver sign-off attempts by outcome."},
		{&m.entrySummaries, EntrySummariesTotal, "Committed entry summaries by build path."},
		{&m.rollbacks, EntrySummaryRollbacksTotal, "Entry summary builds rolled back."},
		{&m.decrementFailures, InventoryDecrementFailuresTotal, "Lot decrements that failed after shipment."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", c.name, err)
		}
		*c.target = counter
	}

	histogram, err := meter.Float64Histogram(EntrySummaryBuildSeconds,
		metric.WithDescription("Entry summary build latency, successful or not."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", EntrySummaryBuildSeconds, err)
	}
	m.buildDuration = histogram
	return m, nil
}

func (m *Metrics) RecordStageTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.stageTransitions.Add(ctx, 1, withLabels(
		attribute.String("from_stage", from),
		attribute.String("to_stage", to),
	))
}

func (m *Metrics) RecordSignoff(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.signoffs.Add(ctx, 1, withLabels(attribute.String("outcome", outcome)))
}

// RecordEntrySummary counts a committed build; path is "single" or "consolidated".
func (m *Metrics) RecordEntrySummary(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.entrySummaries.Add(ctx, 1, withLabels(attribute.String("path", path)))
}

func (m *Metrics) RecordEntrySummaryRollback(ctx context.Context, path, reason string) {
	if m == nil {
		return
	}
	m.rollbacks.Add(ctx, 1, withLabels(
		attribute.String("path", path),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) RecordBuildDuration(ctx context.Context, path string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.buildDuration.Record(ctx, elapsed.Seconds(), withLabels(attribute.String("path", path)))
}

func (m *Metrics) RecordInventoryDecrementFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.decrementFailures.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Labels outside this set are dropped; shipment ids and entry numbers
// must never become metric dimensions.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"from_stage": {},
	"to_stage":   {},
	"outcome":    {},
	"path":       {},
	"reason":     {},
}

func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		if attr.Value.Type() == attribute.STRING {
			attr = attr.Key.String(strings.TrimSpace(attr.Value.AsString()))
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func withLabels(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(FilterAttributes(attrs...)...)
}
