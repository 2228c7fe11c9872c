package termcache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrTermNotPrefetched = errors.New("term was not part of the prefetched batch")
	ErrInvalidTermKind   = errors.New("invalid term kind")
)

type EntityID string

func (e EntityID) String() string {
	return string(e)
}

type Revision uint64

type Language string

type TermKind string

const (
	TermKindLabel       TermKind = "label"
	TermKindDescription TermKind = "description"
	TermKindAlias       TermKind = "alias"
)

// Valid reports whether k is one of the known term kinds.
func (k TermKind) Valid() bool {
	switch k {
	case TermKindLabel, TermKindDescription, TermKindAlias:
		return true
	}

	return false
}

// TermValue is a cached term. Found is false for a term that was looked up
// and confirmed not to exist, which is different from a cache miss.
type TermValue struct {
	Text  string `msgpack:"t"`
	Found bool   `msgpack:"f"`
}

func Term(text string) TermValue {
	return TermValue{Text: text, Found: true}
}

func AbsentTerm() TermValue {
	return TermValue{}
}

// TermIdentity addresses one term of one entity.
type TermIdentity struct {
	EntityID EntityID
	Kind     TermKind
	Language Language
}

type CacheKey struct {
	Key      string
	EntityID EntityID
	Revision Revision
	Kind     TermKind
	Language Language
}

type PrefetchRequest struct {
	EntityIDs []EntityID
	Kinds     []TermKind
	Languages []Language
}

// Store is a key/value store for term values. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*TermValue, error)
	Set(ctx context.Context, key string, value TermValue, ttl time.Duration) error
	MSet(ctx context.Context, values map[string]TermValue, ttl time.Duration) error
}

// RevisionLookup returns the latest revision of an entity together with the id
// of the entity holding that revision, following redirects.
// ErrEntityNotFound is returned for unknown or deleted entities.
type RevisionLookup interface {
	LookupLatestRevisionResolvingRedirect(ctx context.Context, id EntityID) (Revision, EntityID, error)
}

// PrefetchingTermLookup loads terms in batches. GetPrefetchedTerm is only valid
// for tuples covered by the most recent PrefetchTerms call and returns
// ErrTermNotPrefetched otherwise.
type PrefetchingTermLookup interface {
	PrefetchTerms(ctx context.Context, ids []EntityID, kinds []TermKind, languages []Language) error
	GetPrefetchedTerm(id EntityID, kind TermKind, language Language) (TermValue, error)
}
