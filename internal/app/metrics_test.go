package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/juulhao/payhook/internal/service"
)

func TestMetricsRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	ctx := context.Background()
	r := newMetricsRecorder()
	r.RecordReconcile(ctx, service.ResultApplied, service.ReasonNone)
	r.RecordReconcile(ctx, service.ResultSkipped, service.ReasonTerminalStateImmutable)
	r.RecordReconcile(ctx, service.ResultSkipped, service.ReasonTerminalStateImmutable)
	r.RecordLookup(ctx, 120*time.Millisecond, true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	outcomes, ok := byName["payhook_reconcile_outcomes"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range outcomes.DataPoints {
		total += dp.Value
	}
	require.EqualValues(t, 3, total)
	require.Len(t, outcomes.DataPoints, 2)

	lookups, ok := byName["payhook_provider_lookup_duration_ms"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, lookups.DataPoints, 1)
	require.EqualValues(t, 1, lookups.DataPoints[0].Count)
}
