package enrichment

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCacheSize bounds each lookup cache when no size is configured.
const DefaultCacheSize = 300

// BoundedCache is a go-cache with a hard entry limit. When full, the entry
// inserted first is evicted. Overwriting a key keeps its original position.
type BoundedCache[T any] struct {
	mu    sync.Mutex
	items *cache.Cache
	order []string
	limit int
	ttl   time.Duration
}

// NewBoundedCache returns a cache holding at most limit entries, each kept
// for ttl. A zero ttl keeps entries until evicted.
func NewBoundedCache[T any](limit int, ttl time.Duration) *BoundedCache[T] {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &BoundedCache[T]{
		items: cache.New(ttl, 2*time.Minute),
		limit: limit,
		ttl:   ttl,
	}
}

func (c *BoundedCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

func (c *BoundedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items.Get(key); !exists {
		c.compact()
		for len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			c.items.Delete(oldest)
		}
		c.order = append(c.order, key)
	}
	c.items.Set(key, value, c.ttl)
}

// Len reports how many keys the cache tracks.
func (c *BoundedCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compact()
	return len(c.order)
}

// compact drops keys go-cache already expired. Caller holds mu.
func (c *BoundedCache[T]) compact() {
	live := c.order[:0]
	for _, k := range c.order {
		if _, ok := c.items.Get(k); ok {
			live = append(live, k)
		}
	}
	c.order = live
}
