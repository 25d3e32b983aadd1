// Package cache provides transaction status caching functionality.
package cache

import (
	"sync"
	"time"

	"github.com/glyphlabs/glyph/internal/ledger"
)

// DefaultStaleness is the duration after which a cached pending status is
// considered stale. Terminal statuses never go stale: a confirmed or failed
// transaction does not change again.
const DefaultStaleness = 30 * time.Second

// Cache defines the interface for status caching operations.
type Cache interface {
	// Get retrieves a cached status entry.
	Get(txID string) (*StatusCacheEntry, bool, time.Duration)

	// Set stores a status entry in the cache.
	Set(entry StatusCacheEntry)

	// IsStale checks if a cache entry needs a fresh gateway poll.
	IsStale(txID string) bool

	// IsStaleWithDuration checks staleness with a custom pending window.
	IsStaleWithDuration(txID string, staleness time.Duration) bool

	// Delete removes a cache entry.
	Delete(txID string)

	// Clear removes all cache entries.
	Clear()

	// Size returns the number of cache entries.
	Size() int

	// Prune removes non-terminal entries older than maxAge.
	Prune(maxAge time.Duration) int
}

// Compile-time interface check
var _ Cache = (*StatusCache)(nil)

// StatusCache stores cached transaction status information.
type StatusCache struct {
	mu      sync.RWMutex                `json:"-"`
	Entries map[string]StatusCacheEntry `json:"entries"`
}

// StatusCacheEntry represents a single cached transaction status.
type StatusCacheEntry struct {
	TxID      string        `json:"tx_id"`
	Status    ledger.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewStatusCache creates a new empty status cache.
func NewStatusCache() *StatusCache {
	return &StatusCache{
		Entries: make(map[string]StatusCacheEntry),
	}
}

// Get retrieves a cached status entry.
// Returns the entry, whether it exists, and its age.
func (c *StatusCache) Get(txID string) (*StatusCacheEntry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[txID]
	if !exists {
		return nil, false, 0
	}

	age := time.Since(entry.UpdatedAt)
	return &entry, true, age
}

// Set stores a status entry in the cache.
func (c *StatusCache) Set(entry StatusCacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = time.Now()
	c.Entries[entry.TxID] = entry
}

// IsStale checks if a cache entry is stale based on the default staleness duration.
func (c *StatusCache) IsStale(txID string) bool {
	return c.IsStaleWithDuration(txID, DefaultStaleness)
}

// IsStaleWithDuration checks if a cache entry is stale based on a custom duration.
// Terminal statuses are never stale.
func (c *StatusCache) IsStaleWithDuration(txID string, staleness time.Duration) bool {
	entry, exists, age := c.Get(txID)
	if !exists {
		return true
	}
	if entry.Status.Terminal() {
		return false
	}
	return age > staleness
}

// Delete removes a cache entry.
func (c *StatusCache) Delete(txID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Entries, txID)
}

// Clear removes all cache entries.
func (c *StatusCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries = make(map[string]StatusCacheEntry)
}

// Size returns the number of cache entries.
func (c *StatusCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.Entries)
}

// Prune removes non-terminal entries older than maxAge and returns the count
// removed. Terminal entries are kept: they stay valid forever and save a
// gateway round-trip.
func (c *StatusCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.Status.Terminal() {
			continue
		}
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
