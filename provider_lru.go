package termcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultLRUCacheSize is the default size for the LRU store.
const DefaultLRUCacheSize = 10000

type lruEntry struct {
	value     TermValue
	expiresAt time.Time
}

// LRUStore is an in-process Store with a bounded number of entries.
type LRUStore struct {
	lru *expirable.LRU[string, lruEntry]
	now func() time.Time
}

// NewLRUStore creates a store holding at most size entries.
// If size is 0 or negative, DefaultLRUCacheSize is used.
func NewLRUStore(size int) *LRUStore {
	if size <= 0 {
		size = DefaultLRUCacheSize
	}

	// A zero library TTL disables its own expiry, each entry carries the TTL it was written with.
	return &LRUStore{
		lru: expirable.NewLRU[string, lruEntry](size, nil, 0),
		now: time.Now,
	}
}

// Get returns nil for unknown keys and for entries past their own TTL.
func (c *LRUStore) Get(ctx context.Context, key string) (*TermValue, error) {
	_ = ctx

	entry, found := c.lru.Get(key)
	if !found {
		return nil, nil
	}

	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, nil
	}

	value := entry.value

	return &value, nil
}

func (c *LRUStore) Set(ctx context.Context, key string, value TermValue, ttl time.Duration) error {
	_ = ctx

	c.lru.Add(key, c.newEntry(value, ttl))

	return nil
}

func (c *LRUStore) MSet(ctx context.Context, values map[string]TermValue, ttl time.Duration) error {
	_ = ctx

	for k, v := range values {
		c.lru.Add(k, c.newEntry(v, ttl))
	}

	return nil
}

// Len reports the number of entries, including ones whose TTL passed but were not read yet.
func (c *LRUStore) Len() int {
	return c.lru.Len()
}

func (c *LRUStore) newEntry(value TermValue, ttl time.Duration) lruEntry {
	entry := lruEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	return entry
}
