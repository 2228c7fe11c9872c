package termcache

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// FetchTermsFn loads terms for a batch from the authoritative source.
// Terms missing from the returned map are treated as not existing.
type FetchTermsFn func(ctx context.Context, req PrefetchRequest) (map[TermIdentity]string, error)

// BufferedTermLookup is a PrefetchingTermLookup that keeps the result of the
// last PrefetchTerms call in memory. A failed PrefetchTerms leaves the buffer
// empty. Callers sharing one instance must not interleave a PrefetchTerms
// between another caller's PrefetchTerms and its reads.
type BufferedTermLookup struct {
	fetch FetchTermsFn

	mu       sync.RWMutex
	entities map[EntityID]struct{}
	kinds    map[TermKind]struct{}
	langs    map[Language]struct{}
	terms    map[TermIdentity]string
}

func NewBufferedTermLookup(fetch FetchTermsFn) *BufferedTermLookup {
	return &BufferedTermLookup{
		fetch: fetch,
	}
}

func (l *BufferedTermLookup) PrefetchTerms(
	ctx context.Context,
	ids []EntityID,
	kinds []TermKind,
	languages []Language,
) error {
	if l.fetch == nil {
		return errors.New("fetch terms from source is not defined")
	}

	req := PrefetchRequest{
		EntityIDs: ids,
		Kinds:     kinds,
		Languages: languages,
	}

	terms, err := l.fetch(ctx, req)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.entities, l.kinds, l.langs, l.terms = nil, nil, nil, nil

		return errors.Wrap(err, "can not get terms from source")
	}

	l.entities = toSet(ids)
	l.kinds = toSet(kinds)
	l.langs = toSet(languages)
	l.terms = terms

	return nil
}

func (l *BufferedTermLookup) GetPrefetchedTerm(id EntityID, kind TermKind, language Language) (TermValue, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, okEntity := l.entities[id]
	_, okKind := l.kinds[kind]
	_, okLang := l.langs[language]

	if !okEntity || !okKind || !okLang {
		return TermValue{}, errors.Wrapf(ErrTermNotPrefetched, "%s/%s/%s", id, kind, language)
	}

	text, ok := l.terms[TermIdentity{EntityID: id, Kind: kind, Language: language}]
	if !ok {
		return AbsentTerm(), nil
	}

	return Term(text), nil
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}

	return set
}
