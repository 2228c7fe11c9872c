package termcache

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/skynet2/termcache"

type prefetchMetrics struct {
	hits    metric.Int64Counter
	misses  metric.Int64Counter
	lookups metric.Int64Counter
	dropped metric.Int64Counter
}

func newPrefetchMetrics(provider metric.MeterProvider) *prefetchMetrics {
	m, err := buildPrefetchMetrics(provider.Meter(meterName))
	if err != nil {
		log.Logger.Err(err).Msg("can not create prefetch metrics, falling back to noop")

		m, _ = buildPrefetchMetrics(noop.NewMeterProvider().Meter(meterName))
	}

	return m
}

func buildPrefetchMetrics(meter metric.Meter) (*prefetchMetrics, error) {
	hits, err := meter.Int64Counter(
		"termcache.prefetch.hits",
		metric.WithDescription("Term cache keys found in the store"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"termcache.prefetch.misses",
		metric.WithDescription("Term cache keys missing from the store"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	lookups, err := meter.Int64Counter(
		"termcache.prefetch.lookups",
		metric.WithDescription("Batched term lookups issued"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"termcache.prefetch.dropped_entities",
		metric.WithDescription("Entities skipped because their revision could not be resolved"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	return &prefetchMetrics{
		hits:    hits,
		misses:  misses,
		lookups: lookups,
		dropped: dropped,
	}, nil
}

func (m *prefetchMetrics) record(ctx context.Context, hits, misses, dropped int) {
	if hits > 0 {
		m.hits.Add(ctx, int64(hits))
	}
	if misses > 0 {
		m.misses.Add(ctx, int64(misses))
	}
	if dropped > 0 {
		m.dropped.Add(ctx, int64(dropped))
	}
}
