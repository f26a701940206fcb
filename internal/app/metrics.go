package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/juulhao/payhook/internal/service"
)

// metricsRecorder пишет исходы сверки (counter) и длительность запросов к провайдеру (histogram) в OTLP
type metricsRecorder struct {
	outcomes metric.Int64Counter
	lookups  metric.Float64Histogram
}

func newMetricsRecorder() *metricsRecorder {
	meter := otel.Meter(serviceName)
	outcomes, _ := meter.Int64Counter("payhook_reconcile_outcomes",
		metric.WithDescription("Reconciliation outcomes by result and skip reason"))
	lookups, _ := meter.Float64Histogram("payhook_provider_lookup_duration_ms",
		metric.WithDescription("Mercado Pago payment lookup duration in milliseconds"))
	return &metricsRecorder{outcomes: outcomes, lookups: lookups}
}

func (r *metricsRecorder) RecordReconcile(ctx context.Context, result service.Result, reason service.SkipReason) {
	if r.outcomes == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("result", string(result))}
	if reason != service.ReasonNone {
		attrs = append(attrs, attribute.String("reason", string(reason)))
	}
	r.outcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (r *metricsRecorder) RecordLookup(ctx context.Context, d time.Duration, ok bool) {
	if r.lookups == nil {
		return
	}
	r.lookups.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(attribute.Bool("ok", ok)))
}
