package noop

import (
	"time"

	"go-gql-cache/internal/interfaces"
	"go-gql-cache/internal/models"
)

// Ensure NoOpCache implements interfaces.Cache
var _ interfaces.Cache = (*NoOpCache)(nil)

// NoOpCache is a no-operation cache implementation for disabled caching
type NoOpCache struct{}

// NewNoOpCache creates a new no-operation cache instance
func NewNoOpCache() interfaces.Cache {
	return &NoOpCache{}
}

// Get always returns cache miss
func (n *NoOpCache) Get(key string) (*models.CacheEntry, bool) {
	return nil, false
}

// Set does nothing
func (n *NoOpCache) Set(key string, val []byte, ttl time.Duration) {
	// No-op
}

// Delete does nothing
func (n *NoOpCache) Delete(key string) {
	// No-op
}

// Clear does nothing
func (n *NoOpCache) Clear() {
	// No-op
}

// Len always returns 0
func (n *NoOpCache) Len() int {
	return 0
}

// Keys always returns an empty slice
func (n *NoOpCache) Keys() []string {
	return nil
}
