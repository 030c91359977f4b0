package qcow

import lru "github.com/hashicorp/golang-lru/v2"

// maxCacheSize bounds each of the three caches' memory footprint; the
// per-entry capacity is derived by dividing it by that cache's entry
// size.
const maxCacheSize = 16 * 1024 * 1024

// evictAllCache wraps hashicorp/golang-lru with the required
// evict-all-on-bound-crossing policy: rather than let the library
// reclaim one entry at a time, Add purges the whole cache once it
// would grow past capacity. The underlying library still does the
// bookkeeping (hashing, bucket management); only the eviction trigger
// is overridden.
type evictAllCache[K comparable, V any] struct {
	lru      *lru.Cache[K, V]
	capacity int
}

func newBoundedCache[K comparable, V any](maxBytes int64, entrySize uint64) *evictAllCache[K, V] {
	capacity := int(uint64(maxBytes) / entrySize)
	if capacity < 1 {
		capacity = 1
	}
	c, err := lru.New[K, V](capacity)
	if err != nil {
		// Only returns an error for size <= 0, which capacity's floor
		// above rules out.
		panic(err)
	}
	return &evictAllCache[K, V]{lru: c, capacity: capacity}
}

func (c *evictAllCache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *evictAllCache[K, V]) Add(key K, value V) {
	if _, exists := c.lru.Peek(key); !exists && c.lru.Len() >= c.capacity {
		c.lru.Purge()
	}
	c.lru.Add(key, value)
}
