package models

import "time"

// CacheEntry represents a cached GraphQL response payload
type CacheEntry struct {
	Data      []byte `json:"data"`
	CreatedAt int64  `json:"created_at"` // milliseconds since epoch
	TTLMs     int64  `json:"ttl_ms"`
}

// NewCacheEntry creates an entry stamped with the current time
func NewCacheEntry(data []byte, ttl time.Duration) CacheEntry {
	return CacheEntry{
		Data:      data,
		CreatedAt: time.Now().UnixMilli(),
		TTLMs:     ttl.Milliseconds(),
	}
}

// IsExpired reports whether the entry has outlived its TTL
func (e *CacheEntry) IsExpired() bool {
	return time.Now().UnixMilli()-e.CreatedAt >= e.TTLMs
}

// ExpiresAt returns the moment the entry stops being valid
func (e *CacheEntry) ExpiresAt() time.Time {
	return time.UnixMilli(e.CreatedAt + e.TTLMs)
}

// CacheStats is a derived view of cache effectiveness
type CacheStats struct {
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	EntryCount int     `json:"entry_count"`
}

// HitRate computes hits/(hits+misses), 0 when there were no accesses
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
