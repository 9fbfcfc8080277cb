package pricing

import (
	"sync"
	"time"
)

// DefaultTTL keeps upstream call volume within free-tier limits.
const DefaultTTL = 15 * time.Second

type cacheEntry struct {
	price float64
	at    time.Time
}

// Cache holds the last fetched price per symbol. An entry is served while
// it is younger than the TTL.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get splits symbols into fresh hits and misses. Misses keep input order.
func (c *Cache) Get(symbols []string) (map[string]float64, []string) {
	now := c.clock.Now()
	hits := make(map[string]float64, len(symbols))
	var misses []string

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, sym := range symbols {
		e, ok := c.entries[sym]
		if ok && now.Sub(e.at) < c.ttl {
			hits[sym] = e.price
			continue
		}
		misses = append(misses, sym)
	}
	return hits, misses
}

func (c *Cache) Set(symbol string, price float64) {
	c.mu.Lock()
	c.entries[symbol] = cacheEntry{price: price, at: c.clock.Now()}
	c.mu.Unlock()
}
