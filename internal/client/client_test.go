package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"go-gql-cache/internal/batch"
	"go-gql-cache/internal/cache/memory"
	"go-gql-cache/internal/cache/service"
	"go-gql-cache/internal/config"
	"go-gql-cache/internal/interfaces/mock"
	"go-gql-cache/internal/models"
	"go-gql-cache/internal/ratelimit"
)

func newTestClient(t *testing.T, tr *mock.MockTransport) *Client {
	t.Helper()
	cfg := config.Default()

	store, err := memory.NewMemoryCache(&cfg.Cache, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	monitor := ratelimit.NewMonitor(cfg.RateLimit, zap.NewNop())
	cacheSvc := service.NewCacheService(store, monitor, zap.NewNop())
	batcher := batch.NewScheduler(tr, cfg.Batch, monitor.Update, zap.NewNop())
	t.Cleanup(batcher.Close)

	return New(tr, cacheSvc, monitor, batcher, cfg, zap.NewNop())
}

func dataResponse(jsonData string) *models.GraphQLResponse {
	return &models.GraphQLResponse{Data: json.RawMessage(jsonData)}
}

func TestClient_GraphQLQuery_CacheIdempotence(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	query := "query ($id: Int!) { node(id: $id) { id } }"
	vars := map[string]interface{}{"id": 1}

	// Exactly one transport call for two lookups within the TTL
	tr.EXPECT().
		Execute(gomock.Any(), query, vars).
		Return(dataResponse(`{"node":{"id":1}}`), nil).
		Times(1)

	first, err := c.GraphQLQuery(context.Background(), query, vars, 5*time.Minute)
	require.NoError(t, err)

	second, err := c.GraphQLQuery(context.Background(), query, vars, 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClient_GraphQLQuery_CacheExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	query := "query { viewer { login } }"

	// A get past the TTL misses and triggers exactly one fresh call
	tr.EXPECT().
		Execute(gomock.Any(), query, gomock.Nil()).
		Return(dataResponse(`{"viewer":{}}`), nil).
		Times(2)

	_, err := c.GraphQLQuery(context.Background(), query, nil, 20*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = c.GraphQLQuery(context.Background(), query, nil, 20*time.Millisecond)
	require.NoError(t, err)
}

func TestClient_GraphQLQuery_TransportErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	wantErr := &models.TransportError{Op: "graphql_request", Err: fmt.Errorf("connection reset")}
	tr.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, wantErr)

	_, err := c.GraphQLQuery(context.Background(), "query { viewer { login } }", nil, time.Minute)

	assert.ErrorIs(t, err, wantErr)
}

func TestClient_GraphQLQuery_GraphQLErrorNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.GraphQLResponse{
			Errors: []models.GraphQLErrorDetail{{Message: "bad field"}},
		}, nil).
		Times(2)

	for i := 0; i < 2; i++ {
		_, err := c.GraphQLQuery(context.Background(), "query { bogus }", nil, time.Minute)
		var gqlErr *models.GraphQLError
		require.ErrorAs(t, err, &gqlErr)
		assert.Equal(t, "bad field", gqlErr.Errors[0].Message)
	}
}

func TestClient_GraphQLQuery_UpdatesMonitor(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	resp := dataResponse(`{"viewer":{}}`)
	resp.RateLimits = map[string]models.RateLimitStatus{
		models.CategoryGraphQL: {Limit: 5000, Remaining: 42, ResetAt: time.Now().Unix() + 3600},
	}
	tr.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(resp, nil)

	_, err := c.GraphQLQuery(context.Background(), "query { viewer { login } }", nil, time.Minute)
	require.NoError(t, err)

	snap := c.RateLimitSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 42, snap.Categories[models.CategoryGraphQL].Remaining)
}

func TestClient_CheckRateLimit_CachedFor60s(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), rateLimitQuery, gomock.Nil()).
		Return(dataResponse(`{"rateLimit":{"limit":5000,"remaining":4800,"used":200,"resetAt":1700000000}}`), nil).
		Times(1)

	first, err := c.CheckRateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4800, first.Remaining)

	// Second check hits the fixed-key cache entry
	second, err := c.CheckRateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClient_GetRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), repositoryQuery, map[string]interface{}{"owner": "golang", "name": "go"}).
		Return(dataResponse(`{"repository":{"name":"go","description":"The Go programming language","stargazerCount":120000,"url":"https://github.com/golang/go","updatedAt":"2026-08-30T00:00:00Z","owner":{"login":"golang"}}}`), nil)

	repo, err := c.GetRepository(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Equal(t, "go", repo.Name)
	assert.Equal(t, "golang", repo.Owner)
	assert.Equal(t, 120000, repo.StargazerCount)
}

func TestClient_GetRepository_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dataResponse(`{"repository":null}`), nil)

	_, err := c.GetRepository(context.Background(), "nobody", "nothing")

	assert.ErrorContains(t, err, "not found")
}

func TestClient_ListRepositories(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), repositoryListQuery, gomock.Any()).
		Return(dataResponse(`{"repositoryOwner":{"repositories":{"totalCount":2,"nodes":[{"name":"a"},{"name":"b"}]}}}`), nil)

	list, err := c.ListRepositories(context.Background(), "golang")

	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)
	require.Len(t, list.Repositories, 2)
	assert.Equal(t, "a", list.Repositories[0].Name)
}

func TestClient_SearchRepositories(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), searchRepositoriesQuery, map[string]interface{}{"query": "cache"}).
		Return(dataResponse(`{"search":{"repositoryCount":1,"nodes":[{"name":"bigcache","owner":{"login":"allegro"}}]}}`), nil)

	result, err := c.SearchRepositories(context.Background(), "cache")

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, "allegro", result.Repositories[0].Owner)
}

func TestClient_BatchOperations_PreservesInputOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	// Five operations coalesce into exactly one combined transport call
	tr.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, query string, variables map[string]interface{}) (*models.GraphQLResponse, error) {
			data := make(map[string]interface{})
			for i := 0; i < 5; i++ {
				alias := fmt.Sprintf("query%d", i)
				require.True(t, strings.Contains(query, alias+":"))
				data[alias] = map[string]interface{}{"name": fmt.Sprintf("repo%d", i)}
			}
			raw, _ := json.Marshal(data)
			return &models.GraphQLResponse{Data: raw}, nil
		}).
		Times(1)

	ops := make([]*models.BatchOperation, 5)
	for i := range ops {
		ops[i] = RepositoryBatchOperation(fmt.Sprintf("op-%d", i), "golang", fmt.Sprintf("repo%d", i))
	}

	results, err := c.BatchOperations(context.Background(), ops)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.JSONEq(t, fmt.Sprintf(`{"name":"repo%d"}`, i), string(res.Data))
	}
}

func TestClient_WaitForRateLimit_EnoughRemaining(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), rateLimitQuery, gomock.Nil()).
		Return(dataResponse(`{"rateLimit":{"limit":5000,"remaining":4000,"used":1000,"resetAt":1700000000}}`), nil)

	start := time.Now()
	err := c.WaitForRateLimit(context.Background(), 100)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestClient_WaitForRateLimit_SleepsUntilReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	// epoch-second truncation makes the exact distance vary between 1s and 2s
	resetAt := time.Now().Unix() + 2
	tr.EXPECT().
		Execute(gomock.Any(), rateLimitQuery, gomock.Nil()).
		Return(dataResponse(fmt.Sprintf(`{"rateLimit":{"limit":5000,"remaining":5,"used":4995,"resetAt":%d}}`, resetAt)), nil)

	start := time.Now()
	err := c.WaitForRateLimit(context.Background(), 100)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestClient_ClearCacheAndStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	tr.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dataResponse(`{"viewer":{}}`), nil)

	_, err := c.GraphQLQuery(context.Background(), "query { viewer { login } }", nil, time.Minute)
	require.NoError(t, err)

	stats := c.CacheStats()
	assert.Equal(t, 1, stats.EntryCount)
	assert.Equal(t, uint64(1), stats.Misses)

	c.ClearCache()
	assert.Equal(t, 0, c.CacheStats().EntryCount)
}

// End-to-end scenario: two identical queries produce one transport call,
// then five batched operations produce one combined call in input order.
func TestClient_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	c := newTestClient(t, tr)

	singleQuery := "query ($id: Int!) { node(id: $id) { id } }"
	tr.EXPECT().
		Execute(gomock.Any(), singleQuery, map[string]interface{}{"id": 1}).
		Return(dataResponse(`{"node":{"id":1}}`), nil).
		Times(1)

	first, err := c.GraphQLQuery(context.Background(), singleQuery, map[string]interface{}{"id": 1}, 5*time.Minute)
	require.NoError(t, err)
	second, err := c.GraphQLQuery(context.Background(), singleQuery, map[string]interface{}{"id": 1}, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tr.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, query string, variables map[string]interface{}) (*models.GraphQLResponse, error) {
			data := make(map[string]json.RawMessage)
			for i := 0; i < 5; i++ {
				data[fmt.Sprintf("query%d", i)] = json.RawMessage(fmt.Sprintf(`{"i":%d}`, i))
			}
			raw, _ := json.Marshal(data)
			return &models.GraphQLResponse{Data: raw}, nil
		}).
		Times(1)

	ops := make([]*models.BatchOperation, 5)
	for i := range ops {
		ops[i] = RepositoryBatchOperation(fmt.Sprintf("op-%d", i), "o", fmt.Sprintf("r%d", i))
	}

	results, err := c.BatchOperations(context.Background(), ops)
	require.NoError(t, err)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.JSONEq(t, fmt.Sprintf(`{"i":%d}`, i), string(res.Data))
	}
}
