package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-gql-cache/internal/config"
	"go-gql-cache/internal/metrics"
	"go-gql-cache/internal/models"
)

// Monitor tracks server-reported quota per category and cache hit/miss
// counters. It is an explicit object constructed once by the composition
// root and injected into the client, never a package global.
type Monitor struct {
	mu       sync.Mutex
	snapshot *models.RateLimitSnapshot
	hits     uint64
	misses   uint64

	cfg    config.RateLimitConfig
	logger *zap.Logger
}

// NewMonitor creates a new Monitor instance
func NewMonitor(cfg config.RateLimitConfig, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		logger: logger,
	}
}

// CanMakeRequest reports whether the category has at least required quota
// left. Without a snapshot it is optimistic and allows the request; the
// first call of a process is therefore never throttled even if the remote
// quota is already exhausted.
func (m *Monitor) CanMakeRequest(category string, required int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		return true
	}
	status, ok := m.snapshot.Categories[category]
	if !ok {
		return true
	}
	return status.Remaining >= required
}

// TimeToReset returns the time until the category's quota window resets,
// 0 without a snapshot
func (m *Monitor) TimeToReset(category string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		return 0
	}
	status, ok := m.snapshot.Categories[category]
	if !ok {
		return 0
	}
	return status.TimeToReset()
}

// Update merges per-category statuses into the stored snapshot and stamps
// it as checked now. Must be called after every network response that
// carries rate limit metadata; responses usually report a subset of
// categories, so unreported ones keep their previous status.
func (m *Monitor) Update(categories map[string]models.RateLimitStatus) {
	if len(categories) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		m.snapshot = &models.RateLimitSnapshot{
			Categories: make(map[string]models.RateLimitStatus),
		}
	}
	for category, status := range categories {
		m.snapshot.Categories[category] = status
		metrics.UpdateRateLimit(category, status.Limit, status.Remaining)
		m.logger.Debug("Rate limit updated",
			zap.String("category", category),
			zap.Int("remaining", status.Remaining),
			zap.Int("limit", status.Limit))
	}
	m.snapshot.LastCheckedAt = time.Now()
}

// Snapshot returns a copy of the current snapshot, nil if none exists yet
func (m *Monitor) Snapshot() *models.RateLimitSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		return nil
	}
	copied := models.RateLimitSnapshot{
		Categories:    make(map[string]models.RateLimitStatus, len(m.snapshot.Categories)),
		LastCheckedAt: m.snapshot.LastCheckedAt,
	}
	for category, status := range m.snapshot.Categories {
		copied.Categories[category] = status
	}
	return &copied
}

// IsStale reports whether the snapshot is older than the staleness window.
// Staleness is advisory only; it never blocks requests.
func (m *Monitor) IsStale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		return true
	}
	return time.Since(m.snapshot.LastCheckedAt) > m.cfg.StaleWindow()
}

// RecordHit increments the cache hit counter
func (m *Monitor) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

// RecordMiss increments the cache miss counter
func (m *Monitor) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

// Counters returns the raw hit/miss counters
func (m *Monitor) Counters() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// HitRate returns hits/(hits+misses), 0 when there were no accesses
func (m *Monitor) HitRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.HitRate(m.hits, m.misses)
}

// Recommendations evaluates fixed policy rules against the current
// snapshot and hit rate, returning advisory text
func (m *Monitor) Recommendations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var recs []string
	if m.snapshot != nil {
		if status, ok := m.snapshot.Categories[models.CategoryCore]; ok && belowRatio(status, m.cfg.CoreWarnRatio) {
			recs = append(recs, "Core API usage is high - consider caching responses longer")
		}
		if status, ok := m.snapshot.Categories[models.CategoryGraphQL]; ok && belowRatio(status, m.cfg.GraphQLWarnRatio) {
			recs = append(recs, "GraphQL API usage is high - batch queries more aggressively")
		}
		if status, ok := m.snapshot.Categories[models.CategorySearch]; ok && belowRatio(status, m.cfg.SearchWarnRatio) {
			recs = append(recs, "Search API usage is high - cache search results more aggressively")
		}
	}
	if total := m.hits + m.misses; total > 0 {
		if models.HitRate(m.hits, m.misses) < m.cfg.HitRateWarnThreshold {
			recs = append(recs, "Cache hit rate is low - review TTL settings")
		}
	}
	return recs
}

// SmartDelay suspends the caller until the category's quota window resets
// when remaining quota is below the configured default threshold. Returns
// immediately when quota is available or no snapshot exists.
func (m *Monitor) SmartDelay(ctx context.Context, category string) error {
	if m.CanMakeRequest(category, m.cfg.DefaultThreshold) {
		return nil
	}

	wait := m.TimeToReset(category)
	if wait <= 0 {
		return nil
	}

	m.logger.Info("Rate limit low, delaying request",
		zap.String("category", category),
		zap.Duration("wait", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rate limit delay interrupted: %w", ctx.Err())
	}
}

func belowRatio(status models.RateLimitStatus, ratio float64) bool {
	if status.Limit <= 0 {
		return false
	}
	return float64(status.Remaining) < ratio*float64(status.Limit)
}
