package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProfileHubMetrics contains all metric instruments.
type ProfileHubMetrics struct {
	CacheHits      metric.Int64Counter
	CacheMisses    metric.Int64Counter
	CacheEvictions metric.Int64Counter
	SinkEvents     metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *ProfileHubMetrics
)

// Metrics returns the process-wide instruments. Instruments are created from
// the global meter, which forwards to whatever provider InitProvider installs.
func Metrics() *ProfileHubMetrics {
	metricsOnce.Do(func() {
		m, err := newMetrics(otel.Meter("profile-hub"))
		if err != nil {
			otel.Handle(err)
			return
		}
		metrics = m
	})
	return metrics
}

func newMetrics(meter metric.Meter) (*ProfileHubMetrics, error) {
	hits, err := meter.Int64Counter("profile_hub_cache_hits_total",
		metric.WithDescription("Cache lookups that found a live entry"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter("profile_hub_cache_misses_total",
		metric.WithDescription("Cache lookups that found no live entry"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter("profile_hub_cache_evictions_total",
		metric.WithDescription("Entries removed by expiry or capacity"),
	)
	if err != nil {
		return nil, err
	}

	sinkEvents, err := meter.Int64Counter("profile_hub_sink_events_total",
		metric.WithDescription("Login events handled by the profile cache sink, by result"),
	)
	if err != nil {
		return nil, err
	}

	return &ProfileHubMetrics{
		CacheHits:      hits,
		CacheMisses:    misses,
		CacheEvictions: evictions,
		SinkEvents:     sinkEvents,
	}, nil
}

// RecordCacheLookup counts a hit or miss for the named cache.
func RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	m := Metrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache", cache))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}

// RecordCacheEvictions counts removed entries for the named cache.
func RecordCacheEvictions(ctx context.Context, cache, reason string, n int) {
	m := Metrics()
	if m == nil || n <= 0 {
		return
	}
	m.CacheEvictions.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.String("reason", reason),
	))
}

// RecordSinkResult counts one sink invocation by result.
func RecordSinkResult(ctx context.Context, result string) {
	m := Metrics()
	if m == nil {
		return
	}
	m.SinkEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
