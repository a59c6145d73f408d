package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gql-cache/internal/batch"
	"go-gql-cache/internal/cache/memory"
	"go-gql-cache/internal/cache/noop"
	"go-gql-cache/internal/cache/service"
	"go-gql-cache/internal/config"
	"go-gql-cache/internal/interfaces"
	"go-gql-cache/internal/models"
	"go-gql-cache/internal/ratelimit"
	"go-gql-cache/internal/transport"
)

// rateLimitCacheKey is the fixed cache key for the rate limit status entry
const rateLimitCacheKey = "rate-limit"

// Client is the facade over the cache store, rate limit monitor, batch
// scheduler and transport. One instance owns its cache and monitor; they
// are not safe to share across processes.
type Client struct {
	transport interfaces.Transport
	cache     *service.CacheService
	monitor   *ratelimit.Monitor
	batcher   *batch.Scheduler
	cfg       *config.Config
	logger    *zap.Logger
}

// New wires a client from explicitly constructed collaborators. Used by the
// composition root and by tests that inject stubs.
func New(tr interfaces.Transport, cacheSvc *service.CacheService, monitor *ratelimit.Monitor, batcher *batch.Scheduler, cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		transport: tr,
		cache:     cacheSvc,
		monitor:   monitor,
		batcher:   batcher,
		cfg:       cfg,
		logger:    logger,
	}
}

// NewWithToken builds a fully wired client authenticating with the given
// opaque credential
func NewWithToken(token string, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	monitor := ratelimit.NewMonitor(cfg.RateLimit, logger)

	var store interfaces.Cache
	if cfg.Cache.Enabled {
		memStore, err := memory.NewMemoryCache(&cfg.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		store = memStore
	} else {
		store = noop.NewNoOpCache()
	}

	cacheSvc := service.NewCacheService(store, monitor, logger)
	tr := transport.NewGraphQLTransport(cfg.Endpoint, token, logger)
	batcher := batch.NewScheduler(tr, cfg.Batch, monitor.Update, logger)

	return New(tr, cacheSvc, monitor, batcher, cfg, logger), nil
}

// Close flushes pending batches and releases resources
func (c *Client) Close() {
	c.batcher.Close()
}

// GraphQLQuery executes a single query with caching. On a cache miss the
// query goes directly to the transport (not through the batch path), the
// monitor is updated from response metadata and the result is cached with
// the given TTL. Transport errors propagate unchanged; no retry.
func (c *Client) GraphQLQuery(ctx context.Context, query string, variables map[string]interface{}, ttl time.Duration) (json.RawMessage, error) {
	data, key, found, err := c.cache.Lookup(query, variables)
	if err != nil {
		return nil, err
	}
	if found {
		return data, nil
	}

	resp, err := c.execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	c.cache.Store(key, resp.Data, ttl)
	return resp.Data, nil
}

// execute runs one query through the transport, feeds the monitor and
// surfaces structured errors as *models.GraphQLError
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) (*models.GraphQLResponse, error) {
	resp, err := c.transport.Execute(ctx, query, variables)
	if err != nil {
		c.logger.Error("GraphQL request failed",
			zap.String("query", query),
			zap.Any("variables", variables),
			zap.Error(err))
		return nil, err
	}

	c.monitor.Update(resp.RateLimits)

	if resp.HasErrors() {
		gqlErr := &models.GraphQLError{Query: query, Errors: resp.Errors}
		c.logger.Error("GraphQL query returned errors",
			zap.String("query", query),
			zap.Any("variables", variables),
			zap.Error(gqlErr))
		return nil, gqlErr
	}

	return resp, nil
}

// CheckRateLimit returns the current core rate limit status, cached under
// a fixed key to avoid a network round-trip on every check
func (c *Client) CheckRateLimit(ctx context.Context) (models.RateLimitStatus, error) {
	if data, found := c.cache.LookupKey(rateLimitCacheKey); found {
		var status models.RateLimitStatus
		if err := json.Unmarshal(data, &status); err == nil {
			return status, nil
		}
		// fall through to a fresh fetch on a corrupted entry
	}

	resp, err := c.execute(ctx, rateLimitQuery, nil)
	if err != nil {
		return models.RateLimitStatus{}, err
	}

	var envelope struct {
		RateLimit models.RateLimitStatus `json:"rateLimit"`
	}
	if err := json.Unmarshal(resp.Data, &envelope); err != nil {
		return models.RateLimitStatus{}, fmt.Errorf("failed to decode rate limit response: %w", err)
	}

	if encoded, err := json.Marshal(envelope.RateLimit); err == nil {
		c.cache.Store(rateLimitCacheKey, encoded, c.cfg.TTL.RateLimit())
	}
	return envelope.RateLimit, nil
}

// GetRepository fetches one repository with the long point-lookup TTL
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*models.Repository, error) {
	data, err := c.GraphQLQuery(ctx, repositoryQuery,
		map[string]interface{}{"owner": owner, "name": name},
		c.cfg.TTL.Repository())
	if err != nil {
		return nil, err
	}
	return parseRepository(data)
}

// ListRepositories fetches an owner's repositories with the short list TTL
func (c *Client) ListRepositories(ctx context.Context, owner string) (*models.RepositoryList, error) {
	data, err := c.GraphQLQuery(ctx, repositoryListQuery,
		map[string]interface{}{"owner": owner},
		c.cfg.TTL.RepositoryList())
	if err != nil {
		return nil, err
	}
	return parseRepositoryList(data)
}

// SearchRepositories runs a repository search with the shortest TTL
func (c *Client) SearchRepositories(ctx context.Context, query string) (*models.SearchResult, error) {
	data, err := c.GraphQLQuery(ctx, searchRepositoriesQuery,
		map[string]interface{}{"query": query},
		c.cfg.TTL.Search())
	if err != nil {
		return nil, err
	}
	return parseSearchResult(data)
}

// BatchOperations enqueues all operations through the batch scheduler and
// returns once every completion settles, preserving input order
func (c *Client) BatchOperations(ctx context.Context, ops []*models.BatchOperation) ([]models.BatchResult, error) {
	for _, op := range ops {
		c.batcher.Enqueue(op)
	}

	results := make([]models.BatchResult, len(ops))
	for i, op := range ops {
		select {
		case res := <-op.Done():
			results[i] = res
		case <-ctx.Done():
			return nil, fmt.Errorf("batch wait interrupted: %w", ctx.Err())
		}
	}
	return results, nil
}

// WaitForRateLimit suspends until the core category has at least
// minRemaining quota, sleeping through the reset when it does not
func (c *Client) WaitForRateLimit(ctx context.Context, minRemaining int) error {
	status, err := c.CheckRateLimit(ctx)
	if err != nil {
		return err
	}
	if status.Remaining >= minRemaining {
		return nil
	}

	wait := status.TimeToReset()
	c.logger.Info("Waiting for rate limit reset",
		zap.Int("remaining", status.Remaining),
		zap.Int("required", minRemaining),
		zap.Duration("wait", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait interrupted: %w", ctx.Err())
	}
}

// SmartDelay cooperatively suspends when the category's remaining quota is
// below the configured default threshold
func (c *Client) SmartDelay(ctx context.Context, category string) error {
	return c.monitor.SmartDelay(ctx, category)
}

// ClearCache removes all cached entries
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// CacheStats returns the derived cache metrics
func (c *Client) CacheStats() models.CacheStats {
	return c.cache.Stats()
}

// RateLimitSnapshot returns a copy of the monitor's current snapshot
func (c *Client) RateLimitSnapshot() *models.RateLimitSnapshot {
	return c.monitor.Snapshot()
}

// Recommendations returns advisory text based on quota usage and hit rate
func (c *Client) Recommendations() []string {
	return c.monitor.Recommendations()
}
