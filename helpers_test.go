package termcache

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

const (
	testRevision = Revision(666)
	testLanguage = Language("en")
)

// recordingSource is an in-memory term source remembering every batch it served.
type recordingSource struct {
	mu       sync.Mutex
	terms    map[TermIdentity]string
	requests []PrefetchRequest
	err      error
}

func newRecordingSource(terms map[TermIdentity]string) *recordingSource {
	return &recordingSource{terms: terms}
}

func (s *recordingSource) fetch(ctx context.Context, req PrefetchRequest) (map[TermIdentity]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)

	if s.err != nil {
		return nil, s.err
	}

	result := map[TermIdentity]string{}
	for _, id := range req.EntityIDs {
		for _, kind := range req.Kinds {
			for _, lang := range req.Languages {
				ident := TermIdentity{EntityID: id, Kind: kind, Language: lang}
				if text, ok := s.terms[ident]; ok {
					result[ident] = text
				}
			}
		}
	}

	return result, nil
}

func (s *recordingSource) lookup() *BufferedTermLookup {
	return NewBufferedTermLookup(s.fetch)
}

func (s *recordingSource) calls() []PrefetchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]PrefetchRequest(nil), s.requests...)
}

func fixedRevisionLookup(revision Revision) RevisionLookup {
	return RevisionLookupFunc(func(ctx context.Context, id EntityID) (Revision, EntityID, error) {
		if err := ctx.Err(); err != nil {
			return 0, "", err
		}

		return revision, id, nil
	})
}

func testKey(id EntityID, kind TermKind) string {
	return BuildCacheKey(id, testRevision, testLanguage, kind)
}

func ident(id EntityID, kind TermKind, lang Language) TermIdentity {
	return TermIdentity{EntityID: id, Kind: kind, Language: lang}
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) (*TermValue, error) {
	args := m.Called(ctx, key)
	v, _ := args.Get(0).(*TermValue)

	return v, args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, key string, value TermValue, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockStore) MSet(ctx context.Context, values map[string]TermValue, ttl time.Duration) error {
	return m.Called(ctx, values, ttl).Error(0)
}

type mockTermLookup struct {
	mock.Mock
}

func (m *mockTermLookup) PrefetchTerms(ctx context.Context, ids []EntityID, kinds []TermKind, languages []Language) error {
	return m.Called(ctx, ids, kinds, languages).Error(0)
}

func (m *mockTermLookup) GetPrefetchedTerm(id EntityID, kind TermKind, language Language) (TermValue, error) {
	args := m.Called(id, kind, language)

	return args.Get(0).(TermValue), args.Error(1)
}
