package interfaces

import (
	"time"

	"go-gql-cache/internal/models"
)

//go:generate mockgen -package=mock -source=cache.go -destination=mock/cache.go

// Cache interface defines the contract for cache store implementations
type Cache interface {
	Get(key string) (*models.CacheEntry, bool) // returns entry and found flag; expired entries are evicted on read
	Set(key string, val []byte, ttl time.Duration)
	Delete(key string)
	Clear()
	Len() int
	Keys() []string
}
