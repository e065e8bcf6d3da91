package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apppr "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/domain/procurement"
)

// InMemoryComparisonCache caches comparison matrices in process memory.
// Suitable for single-instance deployments and tests. Entries expire
// lazily on read.
type InMemoryComparisonCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]inMemoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type inMemoryEntry struct {
	comparison *procurement.Comparison
	expiresAt  time.Time
}

// NewInMemoryComparisonCache creates a new in-memory comparison cache
func NewInMemoryComparisonCache(ttl time.Duration) *InMemoryComparisonCache {
	if ttl <= 0 {
		ttl = defaultComparisonTTL
	}
	return &InMemoryComparisonCache{
		entries: make(map[uuid.UUID]inMemoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached matrix for a round, or (nil, nil) on a miss
func (c *InMemoryComparisonCache) Get(ctx context.Context, rfqID uuid.UUID) (*procurement.Comparison, error) {
	c.mu.RLock()
	entry, ok := c.entries[rfqID]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, rfqID)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.comparison, nil
}

// Set stores the matrix with the configured TTL
func (c *InMemoryComparisonCache) Set(ctx context.Context, comparison *procurement.Comparison) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[comparison.RfqID] = inMemoryEntry{
		comparison: comparison,
		expiresAt:  c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate drops the cached matrix for a round
func (c *InMemoryComparisonCache) Invalidate(ctx context.Context, rfqID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, rfqID)
	return nil
}

// Len returns the number of live entries (for tests and monitoring)
func (c *InMemoryComparisonCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ apppr.ComparisonCache = (*InMemoryComparisonCache)(nil)
