package features

import (
	"fmt"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

// CacheKey identifies one memoized feature vector
type CacheKey struct {
	Team          string
	GameID        string
	AsOf          time.Time
	ConfigVersion string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%d|%s", k.Team, k.GameID, k.AsOf.UTC().UnixNano(), k.ConfigVersion)
}

// Cache provides in-memory memoization of computed feature vectors
type Cache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewCache creates a new feature cache. A non-positive ttl keeps entries until flushed.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{cache: cache.New(cache.NoExpiration, 0), ttl: cache.NoExpiration}
	}
	return &Cache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached vector
func (c *Cache) Get(key CacheKey) (models.TeamFeatureVector, bool) {
	if result, found := c.cache.Get(key.String()); found {
		if vec, ok := result.(models.TeamFeatureVector); ok {
			c.hitCount.Add(1)
			c.updateMetrics()
			return vec, true
		}
	}

	c.missCount.Add(1)
	c.updateMetrics()
	return models.TeamFeatureVector{}, false
}

// Set stores a vector in cache
func (c *Cache) Set(key CacheKey, vec models.TeamFeatureVector) {
	c.cache.Set(key.String(), vec, c.ttl)
}

// getBaseline retrieves a cached league baseline
func (c *Cache) getBaseline(key string) (models.LeagueBaseline, bool) {
	if result, found := c.cache.Get(key); found {
		if b, ok := result.(models.LeagueBaseline); ok {
			return b, true
		}
	}
	return models.LeagueBaseline{}, false
}

func (c *Cache) setBaseline(key string, b models.LeagueBaseline) {
	c.cache.Set(key, b, c.ttl)
}

// Clear flushes the entire cache
func (c *Cache) Clear() {
	c.cache.Flush()
	c.hitCount.Store(0)
	c.missCount.Store(0)
}

// Stats returns cache statistics
func (c *Cache) Stats() (hits, misses uint64, ratio float64) {
	hits = c.hitCount.Load()
	misses = c.missCount.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (c *Cache) updateMetrics() {
	_, _, ratio := c.Stats()
	metrics.UpdateFeatureCacheHitRatio(ratio)
}

// ItemCount returns the number of items in cache
func (c *Cache) ItemCount() int {
	return c.cache.ItemCount()
}
