package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	termcache "github.com/skynet2/termcache"
)

// termsDB stands in for the authoritative term storage.
var termsDB = map[termcache.TermIdentity]string{
	{EntityID: "Q64", Kind: termcache.TermKindLabel, Language: "en"}:       "Berlin",
	{EntityID: "Q64", Kind: termcache.TermKindLabel, Language: "de"}:       "Berlin",
	{EntityID: "Q64", Kind: termcache.TermKindDescription, Language: "en"}: "capital of Germany",
	{EntityID: "Q90", Kind: termcache.TermKindLabel, Language: "en"}:       "Paris",
	{EntityID: "Q90", Kind: termcache.TermKindDescription, Language: "de"}: "Hauptstadt Frankreichs",
}

type revisionsDB map[termcache.EntityID]termcache.LatestRevision

func (r revisionsDB) LatestRevision(ctx context.Context, id termcache.EntityID) (termcache.LatestRevision, error) {
	latest, ok := r[id]
	if !ok {
		return termcache.LatestRevision{}, termcache.ErrEntityNotFound
	}

	return latest, nil
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	berlin := termcache.EntityID("Q64")
	revisions := revisionsDB{
		"Q64":    {Revision: 1201},
		"Q90":    {Revision: 877},
		"Q64001": {Revision: 3, RedirectTarget: &berlin},
	}

	fetched := 0
	termLookup := termcache.NewBufferedTermLookup(func(ctx context.Context, req termcache.PrefetchRequest) (map[termcache.TermIdentity]string, error) {
		fetched++
		log.Ctx(ctx).Info().Interface("entities", req.EntityIDs).Msg("fetching terms from source")

		result := map[termcache.TermIdentity]string{}
		for _, id := range req.EntityIDs {
			for _, kind := range req.Kinds {
				for _, lang := range req.Languages {
					ident := termcache.TermIdentity{EntityID: id, Kind: kind, Language: lang}
					if text, ok := termsDB[ident]; ok {
						result[ident] = text
					}
				}
			}
		}

		return result, nil
	})

	stores := []termcache.Store{termcache.NewLRUStore(1000)}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()

		stores = append(stores, termcache.NewRedisStore(client).WithPrefix("terms:"))
		log.Ctx(ctx).Info().Str("addr", addr).Msg("redis tier enabled")
	}

	store := termcache.NewMultiLevelStore(stores...).WithBackfillTtl(5 * time.Minute)

	prefetcher := termcache.NewPrefetcherBuilder(
		termLookup,
		termcache.NewRedirectResolvingRevisionLookup(revisions),
	).
		WithTtl(5 * time.Minute).
		WithResolveConcurrency(4).
		Build()

	ids := []termcache.EntityID{"Q64", "Q90", "Q64001", "Q404"}
	kinds := []termcache.TermKind{termcache.TermKindLabel, termcache.TermKindDescription}
	languages := []termcache.Language{"en", "de"}

	for i := 0; i < 2; i++ {
		if err := prefetcher.PrefetchUncached(ctx, store, ids, kinds, languages); err != nil {
			log.Ctx(ctx).Fatal().Err(err).Msg("prefetch failed")
		}
	}

	log.Ctx(ctx).Info().Int("source_calls", fetched).Msg("prefetch finished")

	for _, id := range ids {
		for _, kind := range kinds {
			for _, lang := range languages {
				v, err := prefetcher.GetCachedTerm(ctx, store, id, kind, lang)
				if err != nil {
					log.Ctx(ctx).Fatal().Err(err).Msg("read failed")
				}

				event := log.Ctx(ctx).Info().
					Str("entity", id.String()).
					Str("kind", string(kind)).
					Str("lang", string(lang))

				switch {
				case v == nil:
					event.Msg("not cached")
				case !v.Found:
					event.Msg("no such term")
				default:
					event.Str("text", v.Text).Msg("cached")
				}
			}
		}
	}
}
