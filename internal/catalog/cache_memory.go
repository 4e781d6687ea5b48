package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

const DefaultQueryCacheMaxEntries = 400

type cachedIDs struct {
	ids       []string
	updatedAt time.Time
	expiresAt time.Time
}

// MemoryQueryCache keeps filtered id lists in process memory. It backs the query cache
// when Redis is not configured or not reachable.
type MemoryQueryCache struct {
	mu         sync.Mutex
	entries    map[string]*cachedIDs
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryQueryCache(ttl time.Duration, maxEntries int) *MemoryQueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultQueryCacheMaxEntries
	}
	return &MemoryQueryCache{
		entries:    make(map[string]*cachedIDs),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryQueryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]string(nil), entry.ids...), true, nil
}

func (c *MemoryQueryCache) Set(_ context.Context, key string, ids []string) error {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cachedIDs{
		ids:       append(make([]string, 0, len(ids)), ids...),
		updatedAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.trimLocked(now)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryQueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryQueryCache) trimLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cachedIDs
	}
	items := make([]pair, 0, len(c.entries))
	for key, entry := range c.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-c.maxEntries; i++ {
		delete(c.entries, items[i].key)
	}
}
