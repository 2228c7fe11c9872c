package termcache

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MultiLevelStore chains stores from fastest to slowest.
type MultiLevelStore struct {
	tiers       []Store
	backfillTtl time.Duration
}

// NewMultiLevelStore chains tiers, fastest first.
// Back-fill writes use DefaultTTL unless WithBackfillTtl is set, independent of
// the TTL configured on the prefetcher; keep the two in line.
func NewMultiLevelStore(tiers ...Store) *MultiLevelStore {
	return &MultiLevelStore{
		tiers:       tiers,
		backfillTtl: DefaultTTL,
	}
}

// WithBackfillTtl sets the TTL used when a value found in a slower tier is
// copied into the faster ones.
func (m *MultiLevelStore) WithBackfillTtl(ttl time.Duration) *MultiLevelStore {
	if ttl > 0 {
		m.backfillTtl = ttl
	}

	return m
}

// Get returns the value from the first tier holding the key. Tier errors are
// only returned when no tier produced a value.
func (m *MultiLevelStore) Get(ctx context.Context, key string) (*TermValue, error) {
	var missingIn []Store
	var finalValue *TermValue
	var tierErr error

	for _, tier := range m.tiers {
		v, err := tier.Get(ctx, key)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("term cache tier read failed")
			tierErr = multierror.Append(tierErr, err)
			continue
		}

		if v != nil {
			finalValue = v
			break
		}

		missingIn = append(missingIn, tier)
	}

	if finalValue == nil {
		if tierErr != nil {
			return nil, errors.Wrap(tierErr, "can not read from any term cache tier")
		}

		return nil, nil
	}

	for _, tier := range missingIn {
		if err := tier.Set(ctx, key, *finalValue, m.backfillTtl); err != nil {
			zerolog.Ctx(ctx).Err(err).Str("key", key).Msg("can not backfill term cache tier")
		}
	}

	return finalValue, nil
}

func (m *MultiLevelStore) Set(ctx context.Context, key string, value TermValue, ttl time.Duration) error {
	var finalErr error
	for _, tier := range m.tiers {
		if err := tier.Set(ctx, key, value, ttl); err != nil {
			finalErr = multierror.Append(finalErr, err)
		}
	}

	return finalErr
}

func (m *MultiLevelStore) MSet(ctx context.Context, values map[string]TermValue, ttl time.Duration) error {
	var finalErr error
	for _, tier := range m.tiers {
		if err := tier.MSet(ctx, values, ttl); err != nil {
			finalErr = multierror.Append(finalErr, err)
		}
	}

	return finalErr
}
