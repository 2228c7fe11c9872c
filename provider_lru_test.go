package termcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	defaultTestCacheSize = 10
	standardTestTTL      = 1 * time.Hour
)

// TestLRUStore_Get_Miss tests getting a non-existent key.
func TestLRUStore_Get_Miss(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(defaultTestCacheSize)

	item, err := store.Get(ctx, "miss_key")

	assert.Nil(t, err)
	assert.Nil(t, item)
}

// TestLRUStore_Get_Hit tests getting an existing key.
func TestLRUStore_Get_Hit(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(defaultTestCacheSize)

	err := store.MSet(ctx, map[string]TermValue{"hit_key": Term("data")}, standardTestTTL)
	assert.Nil(t, err)

	item, err := store.Get(ctx, "hit_key")

	assert.Nil(t, err)
	assert.NotNil(t, item)
	assert.Equal(t, Term("data"), *item)
}

// TestLRUStore_AbsentMarkerIsAHit checks the absent marker is not confused with a miss.
func TestLRUStore_AbsentMarkerIsAHit(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(defaultTestCacheSize)

	assert.Nil(t, store.Set(ctx, "absent_key", AbsentTerm(), standardTestTTL))

	item, err := store.Get(ctx, "absent_key")

	assert.Nil(t, err)
	assert.NotNil(t, item)
	assert.False(t, item.Found)
}

// TestLRUStore_Expiration tests that each entry expires after its own TTL.
func TestLRUStore_Expiration(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(defaultTestCacheSize)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	assert.Nil(t, store.MSet(ctx, map[string]TermValue{"short": Term("a")}, time.Minute))
	assert.Nil(t, store.MSet(ctx, map[string]TermValue{"long": Term("b")}, time.Hour))

	item, err := store.Get(ctx, "short")
	assert.Nil(t, err)
	assert.NotNil(t, item)

	now = now.Add(2 * time.Minute)

	item, err = store.Get(ctx, "short")
	assert.Nil(t, err)
	assert.Nil(t, item)

	item, err = store.Get(ctx, "long")
	assert.Nil(t, err)
	assert.NotNil(t, item)
	assert.Equal(t, 1, store.Len())
}

// TestLRUStore_LongTtlIsKeptVerbatim tests that a per-call TTL longer than an
// hour is not cut short by the store.
func TestLRUStore_LongTtlIsKeptVerbatim(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(defaultTestCacheSize)

	now := time.Now()
	store.now = func() time.Time { return now }

	assert.Nil(t, store.MSet(ctx, map[string]TermValue{"long": Term("a")}, 3*time.Hour))

	time.Sleep(150 * time.Millisecond)

	now = now.Add(2 * time.Hour)

	item, err := store.Get(ctx, "long")
	assert.Nil(t, err)
	assert.NotNil(t, item)
	assert.Equal(t, Term("a"), *item)

	now = now.Add(time.Hour)

	item, err = store.Get(ctx, "long")
	assert.Nil(t, err)
	assert.Nil(t, item)
}

// TestLRUStore_Eviction tests store eviction based on size.
func TestLRUStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(2)

	assert.Nil(t, store.Set(ctx, "evict_key1", Term("item1"), standardTestTTL))
	assert.Nil(t, store.Set(ctx, "evict_key2", Term("item2"), standardTestTTL))

	// key1 becomes most recently used
	_, _ = store.Get(ctx, "evict_key1")

	assert.Nil(t, store.Set(ctx, "evict_key3", Term("item3"), standardTestTTL))

	item, err := store.Get(ctx, "evict_key1")
	assert.Nil(t, err)
	assert.NotNil(t, item, "key1 should still be in store")

	item, err = store.Get(ctx, "evict_key2")
	assert.Nil(t, err)
	assert.Nil(t, item, "key2 should have been evicted")

	item, err = store.Get(ctx, "evict_key3")
	assert.Nil(t, err)
	assert.NotNil(t, item, "key3 should be in store")
}

func TestLRUStore_DefaultSize(t *testing.T) {
	store := NewLRUStore(0)

	assert.Equal(t, 0, store.Len())
	assert.Nil(t, store.Set(context.Background(), "k", Term("v"), 0))

	item, err := store.Get(context.Background(), "k")
	assert.Nil(t, err)
	assert.NotNil(t, item)
}

var _ Store = (*LRUStore)(nil)
