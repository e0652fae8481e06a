package cache

import (
	"fmt"
	"slices"
	"time"

	"github.com/maypok86/otter/v2"

	restorehq "github.com/eugener/restorehq/internal"
)

// DefaultTTL is how long search results stay fresh.
const DefaultTTL = 5 * time.Minute

// entry wraps cached results with the time they were stored.
type entry struct {
	results  []restorehq.SearchResult
	storedAt time.Time
}

// Memory is an in-memory search result cache backed by otter. Freshness is
// checked on read: a stale entry is invalidated by the Get that finds it and
// is never refreshed in the background.
type Memory struct {
	cache *otter.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory creates a cache holding at most maxSize keys whose entries stay
// fresh for ttl.
func NewMemory(maxSize int, ttl time.Duration) (*Memory, error) {
	if maxSize <= 0 {
		maxSize = 10_000
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c, err := otter.New[string, entry](&otter.Options[string, entry]{
		MaximumSize: maxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Memory{cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns the results stored under key if they are still fresh
// (age <= TTL). A stale entry is evicted and reported absent.
func (m *Memory) Get(key string) ([]restorehq.SearchResult, bool) {
	e, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.storedAt) > m.ttl {
		m.cache.Invalidate(key)
		return nil, false
	}
	return slices.Clone(e.results), true
}

// Set overwrites the entry for key with results stamped at the current time.
func (m *Memory) Set(key string, results []restorehq.SearchResult) {
	m.cache.Set(key, entry{
		results:  slices.Clone(results),
		storedAt: m.now(),
	})
}

// Clear removes every entry.
func (m *Memory) Clear() {
	m.cache.InvalidateAll()
}

// Len returns the approximate number of stored entries, stale ones included.
func (m *Memory) Len() int {
	return m.cache.EstimatedSize()
}

// TTL returns the freshness window.
func (m *Memory) TTL() time.Duration { return m.ttl }
