// Package observe holds the service's OpenTelemetry metric instruments and the
// HTTP middleware that records request latency.
//
// Metrics are exported through the Prometheus bridge set up by InitProvider
// and scraped from /metrics. Tests should build their own Metrics with
// NewMetrics and a ManualReader.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/spacesedan/hinglishflow"

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	// HTTPRequestDuration uses attributes method, route and status.
	HTTPRequestDuration metric.Float64Histogram

	// Conversions counts completed conversions by input_method.
	Conversions metric.Int64Counter

	// StageFallbacks counts collaborator failures the pipeline recovered
	// from, by stage.
	StageFallbacks metric.Int64Counter

	// StageDuration tracks pipeline stage latency by stage.
	StageDuration metric.Float64Histogram

	// TranslatorHealthy is 1 while the last health probe succeeded.
	TranslatorHealthy metric.Int64Gauge
}

var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HTTPRequestDuration, err = m.Float64Histogram("hinglishflow.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Conversions, err = m.Int64Counter("hinglishflow.conversions",
		metric.WithDescription("Completed conversions by input method."),
	); err != nil {
		return nil, err
	}
	if met.StageFallbacks, err = m.Int64Counter("hinglishflow.stage.fallbacks",
		metric.WithDescription("Pipeline stages that failed and fell back to their input."),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("hinglishflow.stage.duration",
		metric.WithDescription("Latency of individual pipeline stages."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranslatorHealthy, err = m.Int64Gauge("hinglishflow.translator.healthy",
		metric.WithDescription("1 when the translation backend passed its last health check."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) RecordConversion(ctx context.Context, inputMethod string) {
	if m == nil {
		return
	}
	m.Conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("input_method", inputMethod)))
}

func (m *Metrics) RecordFallback(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.StageFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) SetTranslatorHealthy(ctx context.Context, backend string, healthy bool) {
	if m == nil {
		return
	}
	var v int64
	if healthy {
		v = 1
	}
	m.TranslatorHealthy.Record(ctx, v, metric.WithAttributes(attribute.String("backend", backend)))
}
