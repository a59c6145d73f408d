package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"go-gql-cache/internal/config"
	"go-gql-cache/internal/interfaces"
	"go-gql-cache/internal/metrics"
	"go-gql-cache/internal/models"
	"go-gql-cache/internal/scheduler"
)

// Ensure MemoryCache implements interfaces.Cache
var _ interfaces.Cache = (*MemoryCache)(nil)

// MemoryCache implements the cache store on top of BigCache. Entries carry
// their own TTL envelope; expiry is checked lazily on every read, with an
// optional background sweep for long-running processes.
type MemoryCache struct {
	cache          *bigcache.BigCache
	logger         *zap.Logger
	sweepScheduler *scheduler.Scheduler
}

// NewMemoryCache creates a new MemoryCache instance
func NewMemoryCache(cacheCfg *config.CacheConfig, logger *zap.Logger) (*MemoryCache, error) {
	// BigCache's own life window only bounds memory; entry freshness is
	// decided by the TTL envelope, not by BigCache eviction
	bcConfig := bigcache.DefaultConfig(24 * time.Hour)
	bcConfig.HardMaxCacheSize = cacheCfg.SizeMB
	bcConfig.Verbose = false
	bcConfig.MaxEntrySize = 1024 * 1024 // 1MB max entry size

	cache, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	mc := &MemoryCache{
		cache:  cache,
		logger: logger,
	}

	if interval := cacheCfg.SweepInterval(); interval > 0 {
		mc.startSweep(interval)
	}

	return mc, nil
}

// Get retrieves a valid entry. Expired or corrupted entries are deleted on
// read and reported missing.
func (mc *MemoryCache) Get(key string) (*models.CacheEntry, bool) {
	data, err := mc.cache.Get(key)
	if err != nil {
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		mc.logger.Warn("Failed to unmarshal cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("decode")
		_ = mc.cache.Delete(key) // Remove corrupted entry
		return nil, false
	}

	if entry.IsExpired() {
		_ = mc.cache.Delete(key)
		return nil, false
	}

	return &entry, true
}

// Set stores a value with the given TTL. A non-positive TTL is a no-op
// since the entry would be born expired.
func (mc *MemoryCache) Set(key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	entry := models.NewCacheEntry(val, ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		mc.logger.Error("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("encode")
		return
	}

	if err := mc.cache.Set(key, data); err != nil {
		mc.logger.Error("Failed to set cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("store")
		return
	}

	metrics.UpdateCacheEntries(mc.cache.Len())
}

// Delete removes an entry from the cache
func (mc *MemoryCache) Delete(key string) {
	if err := mc.cache.Delete(key); err != nil {
		return
	}
}

// Clear removes all entries
func (mc *MemoryCache) Clear() {
	if err := mc.cache.Reset(); err != nil {
		mc.logger.Error("Failed to reset cache", zap.Error(err))
		return
	}
	metrics.UpdateCacheEntries(0)
}

// Len returns the number of stored entries, expired ones included until
// they are read or swept
func (mc *MemoryCache) Len() int {
	return mc.cache.Len()
}

// Keys returns all stored keys
func (mc *MemoryCache) Keys() []string {
	keys := make([]string, 0, mc.cache.Len())
	it := mc.cache.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			continue
		}
		keys = append(keys, info.Key())
	}
	return keys
}

// Close stops the background sweep and releases the underlying cache
func (mc *MemoryCache) Close() error {
	if mc.sweepScheduler != nil {
		mc.sweepScheduler.Stop()
	}
	return mc.cache.Close()
}

// startSweep begins periodic eviction of expired entries
func (mc *MemoryCache) startSweep(interval time.Duration) {
	mc.sweepScheduler = scheduler.New(interval, mc.sweepExpired)
	mc.sweepScheduler.Start()
	mc.logger.Debug("Started cache sweep", zap.Duration("interval", interval))
}

// sweepExpired walks all keys; Get evicts expired entries as a side effect
func (mc *MemoryCache) sweepExpired() {
	for _, key := range mc.Keys() {
		mc.Get(key)
	}
	metrics.UpdateCacheEntries(mc.cache.Len())
}
