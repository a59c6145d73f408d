package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gql-cache/internal/client"
	"go-gql-cache/internal/models"
)

// demoRepos are the repositories fetched by the batched portion of the demo
var demoRepos = []struct{ owner, name string }{
	{"golang", "go"},
	{"kubernetes", "kubernetes"},
	{"prometheus", "prometheus"},
	{"grafana", "grafana"},
	{"allegro", "bigcache"},
}

// runDemo exercises the client end to end: rate limit status, cache hit
// timing, a batched multi-entity query, cache statistics and usage
// recommendations.
func runDemo(ctx context.Context, root *CompositionRoot) error {
	logger := root.Logger
	apiClient := root.Client

	// 1. Rate limit status
	status, err := apiClient.CheckRateLimit(ctx)
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}
	logger.Info("Rate limit status",
		zap.Int("limit", status.Limit),
		zap.Int("remaining", status.Remaining),
		zap.Int("used", status.Used),
		zap.Duration("time_to_reset", status.TimeToReset()))

	// 2. Same query twice: the second call is served from cache
	coldStart := time.Now()
	repo, err := apiClient.GetRepository(ctx, "golang", "go")
	if err != nil {
		return fmt.Errorf("repository fetch failed: %w", err)
	}
	coldElapsed := time.Since(coldStart)

	warmStart := time.Now()
	if _, err := apiClient.GetRepository(ctx, "golang", "go"); err != nil {
		return fmt.Errorf("cached repository fetch failed: %w", err)
	}
	warmElapsed := time.Since(warmStart)

	logger.Info("Cache timing comparison",
		zap.String("repository", repo.Name),
		zap.Int("stars", repo.StargazerCount),
		zap.Duration("cold", coldElapsed),
		zap.Duration("warm", warmElapsed))

	// 3. Batched multi-entity query
	batchStart := time.Now()
	ops := make([]*models.BatchOperation, 0, len(demoRepos))
	for i, target := range demoRepos {
		ops = append(ops, client.RepositoryBatchOperation(
			fmt.Sprintf("demo-%d", i), target.owner, target.name))
	}
	results, err := apiClient.BatchOperations(ctx, ops)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	succeeded := 0
	for _, res := range results {
		if res.Err == nil {
			succeeded++
		}
	}
	logger.Info("Batched query completed",
		zap.Int("operations", len(results)),
		zap.Int("succeeded", succeeded),
		zap.Duration("elapsed", time.Since(batchStart)))

	// 4. Cache statistics
	stats := apiClient.CacheStats()
	logger.Info("Cache statistics",
		zap.Uint64("hits", stats.Hits),
		zap.Uint64("misses", stats.Misses),
		zap.Float64("hit_rate", stats.HitRate),
		zap.Int("entries", stats.EntryCount))

	// 5. Recommendations
	for _, rec := range apiClient.Recommendations() {
		logger.Info("Recommendation", zap.String("advice", rec))
	}

	return nil
}
