package termcache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// UncachedTermsPrefetcher makes sure terms of a batch of entities are present
// in a Store, fetching only the missing ones from a PrefetchingTermLookup.
//
// Keys embed the entity revision, so entries never have to be invalidated on
// edit: a new revision simply produces new keys. Concurrent prefetches of the
// same keys are not coordinated and may both hit the term lookup; they write
// identical values.
type UncachedTermsPrefetcher struct {
	// lookupMu keeps a PrefetchTerms call and the reads of its batch together.
	lookupMu sync.Mutex

	termLookup         PrefetchingTermLookup
	revisionLookup     RevisionLookup
	ttl                time.Duration
	resolveConcurrency int
	metrics            *prefetchMetrics
}

type resolvedEntity struct {
	id       EntityID
	revision Revision
	ok       bool
}

// PrefetchUncached stores every (entity, kind, language) term of the given
// entities at their latest revision into store. The term lookup is called at
// most once, for the entities that have at least one uncached key.
// Entities that can not be resolved are skipped.
func (p *UncachedTermsPrefetcher) PrefetchUncached(
	ctx context.Context,
	store Store,
	ids []EntityID,
	kinds []TermKind,
	languages []Language,
) error {
	for _, kind := range kinds {
		if !kind.Valid() {
			return errors.Wrapf(ErrInvalidTermKind, "%q", kind)
		}
	}

	ids = distinct(ids)
	kinds = distinct(kinds)
	languages = distinct(languages)

	if len(ids) == 0 || len(kinds) == 0 || len(languages) == 0 {
		return nil
	}

	resolved, err := p.resolve(ctx, ids)
	if err != nil {
		return err
	}

	dropped := 0
	var keys []*CacheKey
	seen := map[string]struct{}{}

	for _, entity := range resolved {
		if !entity.ok {
			dropped++
			continue
		}

		for _, kind := range kinds {
			for _, language := range languages {
				key := newCacheKey(entity.id, entity.revision, language, kind)
				if _, ok := seen[key.Key]; ok {
					continue
				}

				seen[key.Key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}

	missing, err := p.missingKeys(ctx, store, keys)
	if err != nil {
		return err
	}

	p.metrics.record(ctx, len(keys)-len(missing), len(missing), dropped)

	if len(missing) == 0 {
		return nil
	}

	var missingIDs []EntityID
	for _, key := range missing {
		missingIDs = append(missingIDs, key.EntityID)
	}
	missingIDs = distinct(missingIDs)

	p.metrics.lookups.Add(ctx, 1)

	staged, err := p.fetchMissing(ctx, missing, missingIDs, kinds, languages)
	if err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	if err = store.MSet(ctx, staged, p.ttl); err != nil {
		return errors.Wrap(err, "can not write prefetched terms")
	}

	zerolog.Ctx(ctx).Debug().
		Int("keys", len(keys)).
		Int("written", len(staged)).
		Int("entities", len(missingIDs)).
		Msg("prefetched uncached terms")

	return nil
}

// GetCachedTerm reads a single term of the latest revision of id from store.
// It returns nil when the term is not cached or the entity does not exist.
func (p *UncachedTermsPrefetcher) GetCachedTerm(
	ctx context.Context,
	store Store,
	id EntityID,
	kind TermKind,
	language Language,
) (*TermValue, error) {
	if !kind.Valid() {
		return nil, errors.Wrapf(ErrInvalidTermKind, "%q", kind)
	}

	revision, resolvedID, err := p.revisionLookup.LookupLatestRevisionResolvingRedirect(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "can not resolve revision of %s", id)
	}

	key := BuildCacheKey(resolvedID, revision, language, kind)

	value, err := store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "can not read term cache key %s", key)
	}

	return value, nil
}

func (p *UncachedTermsPrefetcher) resolve(ctx context.Context, ids []EntityID) ([]resolvedEntity, error) {
	results := make([]resolvedEntity, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.resolveConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			revision, resolvedID, err := p.revisionLookup.LookupLatestRevisionResolvingRedirect(gCtx, id)
			if err != nil {
				if ctxErr := gCtx.Err(); ctxErr != nil {
					return ctxErr
				}

				if errors.Is(err, ErrEntityNotFound) {
					zerolog.Ctx(ctx).Debug().Str("entity_id", id.String()).Msg("entity not found, skipping")
				} else {
					zerolog.Ctx(ctx).Warn().Err(err).Str("entity_id", id.String()).
						Msg("can not resolve entity revision, skipping")
				}

				return nil
			}

			results[i] = resolvedEntity{
				id:       resolvedID,
				revision: revision,
				ok:       true,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "revision resolution interrupted")
	}

	return results, nil
}

// fetchMissing runs one batched lookup and reads back every missing key.
// Cache reads and writes stay outside the lock.
func (p *UncachedTermsPrefetcher) fetchMissing(
	ctx context.Context,
	missing []*CacheKey,
	ids []EntityID,
	kinds []TermKind,
	languages []Language,
) (map[string]TermValue, error) {
	p.lookupMu.Lock()
	defer p.lookupMu.Unlock()

	if err := p.termLookup.PrefetchTerms(ctx, ids, kinds, languages); err != nil {
		return nil, errors.Wrap(err, "can not prefetch terms")
	}

	staged := make(map[string]TermValue, len(missing))

	for _, key := range missing {
		value, err := p.termLookup.GetPrefetchedTerm(key.EntityID, key.Kind, key.Language)
		if err != nil {
			return nil, errors.Wrapf(err, "can not read prefetched term for key %s", key.Key)
		}

		staged[key.Key] = value
	}

	return staged, nil
}

func (p *UncachedTermsPrefetcher) missingKeys(ctx context.Context, store Store, keys []*CacheKey) ([]*CacheKey, error) {
	var missing []*CacheKey

	for _, key := range keys {
		value, err := store.Get(ctx, key.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "can not read term cache key %s", key.Key)
		}

		if value == nil {
			missing = append(missing, key)
		}
	}

	return missing, nil
}

func distinct[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}

		seen[item] = struct{}{}
		result = append(result, item)
	}

	return result
}
