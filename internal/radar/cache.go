package radar

import (
	"sync"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// bundleCache memoizes generated bundles per (site, lookback) key for the
// process lifetime. Entries are never evicted; the keyspace is bounded by
// the configured site list times the handful of lookback values callers use.
// Safe for concurrent use: independent keys build in parallel, concurrent
// requests for the same key build exactly once.
type bundleCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once   sync.Once
	bundle domain.RadarBundle
}

func newBundleCache() *bundleCache {
	return &bundleCache{entries: make(map[string]*cacheEntry)}
}

// getOrCreate returns the memoized bundle for key, building it via build on
// first use. hit reports whether the entry already existed.
func (c *bundleCache) getOrCreate(key string, build func() domain.RadarBundle) (bundle domain.RadarBundle, hit bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.bundle = build()
	})
	return e.bundle, ok
}
