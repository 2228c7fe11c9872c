package termcache

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DefaultTTL is applied to prefetched entries when no TTL is configured.
const DefaultTTL = 60 * time.Second

type PrefetcherBuilder struct {
	termLookup         PrefetchingTermLookup
	revisionLookup     RevisionLookup
	ttl                time.Duration
	resolveConcurrency int
	meterProvider      metric.MeterProvider
}

func NewPrefetcherBuilder(
	termLookup PrefetchingTermLookup,
	revisionLookup RevisionLookup,
) *PrefetcherBuilder {
	return &PrefetcherBuilder{
		termLookup:         termLookup,
		revisionLookup:     revisionLookup,
		resolveConcurrency: 1,
	}
}

func (b *PrefetcherBuilder) Build() *UncachedTermsPrefetcher {
	ttl := b.ttl
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	concurrency := b.resolveConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	mp := b.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	return &UncachedTermsPrefetcher{
		termLookup:         b.termLookup,
		revisionLookup:     b.revisionLookup,
		ttl:                ttl,
		resolveConcurrency: concurrency,
		metrics:            newPrefetchMetrics(mp),
	}
}

// WithTtl sets the TTL of every entry written by a prefetch.
// Zero or negative values select DefaultTTL.
func (b *PrefetcherBuilder) WithTtl(ttl time.Duration) *PrefetcherBuilder {
	b.ttl = ttl

	return b
}

// WithResolveConcurrency bounds how many revision lookups run at once.
func (b *PrefetcherBuilder) WithResolveConcurrency(n int) *PrefetcherBuilder {
	b.resolveConcurrency = n

	return b
}

func (b *PrefetcherBuilder) WithMeterProvider(mp metric.MeterProvider) *PrefetcherBuilder {
	b.meterProvider = mp

	return b
}
