package simulation

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/compass/internal/modules/planning"
)

// DefaultCacheTTL is how long cached results stay valid unless the
// constructor is given a different TTL.
const DefaultCacheTTL = time.Hour

// Cache is an in-memory TTL cache for computed results. Values are stored
// msgpack-encoded, so every Get decodes a private copy and a cached entry
// can never be mutated through a returned pointer.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time
}

type cacheEntry struct {
	payload  []byte
	storedAt time.Time
}

// NewCache creates a cache. A non-positive ttl falls back to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value any) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: payload, storedAt: c.now()}
	c.mu.Unlock()
	return nil
}

// Get decodes the entry under key into dst and reports whether a live
// entry was found. Expired or undecodable entries are evicted on access.
func (c *Cache) Get(key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return false
	}
	if err := msgpack.Unmarshal(entry.payload, dst); err != nil {
		delete(c.entries, key)
		c.misses++
		return false
	}
	c.hits++
	return true
}

// Sweep evicts every expired entry and returns how many were removed.
// The scheduler runs this periodically so idle entries do not pile up.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := c.now().Add(-c.ttl)
	for key, entry := range c.entries {
		if entry.storedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CacheStats is a usage snapshot for the system status endpoint.
type CacheStats struct {
	Entries    int     `json:"entries"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// Stats returns the current entry count and hit/miss counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:    len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
		TTLSeconds: c.ttl.Seconds(),
	}
}

// PlanKey derives a stable cache key from plan identity plus any extra
// qualifiers (strategy name, trial count). Allocation entries are folded
// in sorted order so logically equal plans hash identically.
func PlanKey(plan *planning.Plan, extra ...string) string {
	h := fnv.New64a()
	if plan != nil {
		fmt.Fprintf(h, "%s|%s|%s|%g|%g|%g", plan.ID, plan.Name, plan.RiskLevel, plan.ExpectedReturn, plan.Volatility, plan.MinInvestment)
		assets := make([]string, 0, len(plan.AssetAllocation))
		for asset := range plan.AssetAllocation {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			fmt.Fprintf(h, "|%s:%g", asset, plan.AssetAllocation[asset])
		}
	}
	for _, e := range extra {
		fmt.Fprintf(h, "|%s", e)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
