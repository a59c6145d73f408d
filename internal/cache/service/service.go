package service

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gql-cache/internal/cache"
	"go-gql-cache/internal/interfaces"
	"go-gql-cache/internal/metrics"
	"go-gql-cache/internal/models"
	"go-gql-cache/internal/ratelimit"
)

// CacheService fronts the store with key building and hit/miss accounting.
// Every lookup is recorded both in the rate limit monitor (for the derived
// hit-rate metric and recommendations) and in prometheus.
type CacheService struct {
	store      interfaces.Cache
	keyBuilder interfaces.KeyBuilder
	monitor    *ratelimit.Monitor
	logger     *zap.Logger
}

// NewCacheService creates a new cache service instance
func NewCacheService(store interfaces.Cache, monitor *ratelimit.Monitor, logger *zap.Logger) *CacheService {
	return &CacheService{
		store:      store,
		keyBuilder: cache.NewKeyBuilder(),
		monitor:    monitor,
		logger:     logger,
	}
}

// Lookup checks the cache for a GraphQL operation. It returns the cache
// key alongside the result so a miss can be stored under the same key
// after the fetch.
func (s *CacheService) Lookup(query string, variables map[string]interface{}) (data json.RawMessage, key string, found bool, err error) {
	key, err = s.keyBuilder.Build(query, variables)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to build cache key: %w", err)
	}

	data, found = s.LookupKey(key)
	return data, key, found, nil
}

// LookupKey checks the cache under an explicit key (used for fixed keys
// like the rate limit status entry)
func (s *CacheService) LookupKey(key string) (json.RawMessage, bool) {
	entry, found := s.store.Get(key)
	if !found {
		s.monitor.RecordMiss()
		metrics.RecordCacheMiss()
		return nil, false
	}

	s.monitor.RecordHit()
	metrics.RecordCacheHit()
	return entry.Data, true
}

// Store caches data under the given key
func (s *CacheService) Store(key string, data []byte, ttl time.Duration) {
	s.store.Set(key, data, ttl)
}

// Clear removes all cached entries, synchronously
func (s *CacheService) Clear() {
	s.store.Clear()
	s.logger.Info("Cache cleared")
}

// Keys returns all cached keys for introspection
func (s *CacheService) Keys() []string {
	return s.store.Keys()
}

// Stats returns the derived cache metrics
func (s *CacheService) Stats() models.CacheStats {
	hits, misses := s.monitor.Counters()
	count := s.store.Len()
	metrics.UpdateCacheEntries(count)

	return models.CacheStats{
		Hits:       hits,
		Misses:     misses,
		HitRate:    models.HitRate(hits, misses),
		EntryCount: count,
	}
}
