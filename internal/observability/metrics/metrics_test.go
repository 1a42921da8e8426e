package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsHighCardinalityLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("from_stage", " Staged "),
		attribute.String("shipment_id", "PS-1001"),
		attribute.String("path", "consolidated"),
	)

	require.Len(t, attrs, 2)
	assert.Equal(t, "Staged", attrs[0].Value.AsString())
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("shipment_id"), attr.Key)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordStageTransition(ctx, "Planning", "Picking")
		m.RecordSignoff(ctx, "shipped")
		m.RecordEntrySummary(ctx, "single")
		m.RecordEntrySummaryRollback(ctx, "single", "persistence")
		m.RecordBuildDuration(ctx, "single", time.Second)
		m.RecordInventoryDecrementFailure(ctx)
	})
}

func TestCountersAreExported(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := New(Config{ServiceName: "ftzflow-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEntrySummary(ctx, "single")
	m.RecordEntrySummary(ctx, "single")
	m.RecordEntrySummary(ctx, "consolidated")
	m.RecordBuildDuration(ctx, "single", 120*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	byName := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, item := range scope.Metrics {
			byName[item.Name] = item
		}
	}

	sum, ok := byName[EntrySummariesTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, point := range sum.DataPoints {
		total += point.Value
	}
	assert.EqualValues(t, 3, total)
	assert.Len(t, sum.DataPoints, 2)

	_, ok = byName[EntrySummaryBuildSeconds].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}
