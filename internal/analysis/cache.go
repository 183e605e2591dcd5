package analysis

import (
	"sync"
	"time"

	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

// DefaultCacheTTL is the default lifetime of a cached analysis result.
const DefaultCacheTTL = time.Hour

// coordKeyPrecision rounds cache-key coordinates to 4 decimal places
// (about 11 m), so requests within one grid cell share an entry.
const coordKeyPrecision = 1e4

// cacheKey identifies a cached analysis by rounded coordinate and grid
// spacing.
type cacheKey struct {
	latE4     int64
	lonE4     int64
	spacingCm int64
}

type cacheEntry struct {
	result   *terrain.AnalysisResult
	storedAt time.Time
}

// Cache memoizes full analysis results with a TTL. It is safe for
// concurrent use. Expiry compares time.Time values produced by the same
// clock, so Go's monotonic reading applies and wall-clock adjustments
// cannot resurrect or prematurely expire entries.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     func() time.Time // injectable for tests
}

// NewCache creates a cache with the given TTL. A non-positive TTL falls
// back to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: map[cacheKey]cacheEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// get returns the cached result for the key if present and unexpired.
func (c *Cache) get(key cacheKey) (*terrain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.result, true
}

// put stores a completed result. Failed computations are never stored;
// callers only put fully built results.
func (c *Cache) put(key cacheKey, result *terrain.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, storedAt: c.now()}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
