package dataprocessing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "salespulse/dataprocessing"

// pipelineMetrics are created against the global meter provider, so they
// start exporting once telemetry is initialized.
type pipelineMetrics struct {
	loads       metric.Int64Counter
	rows        metric.Int64Counter
	advisories  metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

func newPipelineMetrics() *pipelineMetrics {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	return &pipelineMetrics{
		loads:       counter("salespulse.table.loads", "Source files normalized into a table"),
		rows:        counter("salespulse.table.rows", "Rows produced by normalization"),
		advisories:  counter("salespulse.table.advisories", "Advisories attached to loaded tables"),
		cacheHits:   counter("salespulse.cache.hits", "Table cache lookups served without normalizing"),
		cacheMisses: counter("salespulse.cache.misses", "Table cache lookups that normalized the file"),
	}
}

func (m *pipelineMetrics) recordLoad(ctx context.Context, rows, advisories int) {
	m.loads.Add(ctx, 1)
	m.rows.Add(ctx, int64(rows))
	if advisories > 0 {
		m.advisories.Add(ctx, int64(advisories))
	}
}

func (m *pipelineMetrics) recordLookup(ctx context.Context, hit bool, reason string) {
	attrs := metric.WithAttributes(attribute.String("reason", reason))
	if hit {
		m.cacheHits.Add(ctx, 1, attrs)
		return
	}
	m.cacheMisses.Add(ctx, 1, attrs)
}
