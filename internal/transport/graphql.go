package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"go-gql-cache/internal/interfaces"
	"go-gql-cache/internal/metrics"
	"go-gql-cache/internal/models"
)

// Ensure GraphQLTransport implements interfaces.Transport
var _ interfaces.Transport = (*GraphQLTransport)(nil)

const defaultTimeout = 30 * time.Second

// GraphQLTransport executes GraphQL requests over HTTP with bearer
// authentication. Timeouts belong to the http.Client and the caller's
// context; no retry policy is applied here.
type GraphQLTransport struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

// NewGraphQLTransport creates a transport for the given endpoint. The token
// is an opaque credential sent as a bearer Authorization header.
func NewGraphQLTransport(endpoint, token string, logger *zap.Logger) *GraphQLTransport {
	return &GraphQLTransport{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   logger,
	}
}

// Execute posts one GraphQL request and decodes the response envelope.
// Network and HTTP level failures return a *models.TransportError; a body
// carrying structured GraphQL errors is returned as a response, not an
// error, so callers can decide how to surface it.
func (t *GraphQLTransport) Execute(ctx context.Context, query string, variables map[string]interface{}) (*models.GraphQLResponse, error) {
	stop := metrics.TimeGraphQLRequest()
	defer stop()

	body, err := json.Marshal(models.GraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		metrics.RecordGraphQLRequest("transport_error")
		return nil, &models.TransportError{Op: "graphql_request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordGraphQLRequest("transport_error")
		return nil, &models.TransportError{Op: "read_response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordGraphQLRequest("transport_error")
		return nil, &models.TransportError{
			Op:  "graphql_request",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody),
		}
	}

	var decoded models.GraphQLResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		metrics.RecordGraphQLRequest("transport_error")
		return nil, &models.TransportError{Op: "decode_response", Err: err}
	}

	decoded.RateLimits = extractRateLimits(resp.Header, decoded.Data)

	if decoded.HasErrors() {
		metrics.RecordGraphQLRequest("graphql_error")
	} else {
		metrics.RecordGraphQLRequest("success")
	}

	return &decoded, nil
}

// extractRateLimits collects per-category quota metadata from two places:
// X-RateLimit-* response headers (category named by X-RateLimit-Resource,
// "core" when absent) and the body's rateLimit field, which reports the
// graphql category.
func extractRateLimits(header http.Header, data json.RawMessage) map[string]models.RateLimitStatus {
	limits := make(map[string]models.RateLimitStatus)

	if limit, ok := headerInt(header, "X-RateLimit-Limit"); ok {
		remaining, _ := headerInt(header, "X-RateLimit-Remaining")
		used, _ := headerInt(header, "X-RateLimit-Used")
		reset, _ := headerInt(header, "X-RateLimit-Reset")

		category := header.Get("X-RateLimit-Resource")
		if category == "" {
			category = models.CategoryCore
		}
		limits[category] = models.RateLimitStatus{
			Limit:     limit,
			Remaining: remaining,
			Used:      used,
			ResetAt:   int64(reset),
		}
	}

	if status, ok := bodyRateLimit(data); ok {
		limits[models.CategoryGraphQL] = status
	}

	if len(limits) == 0 {
		return nil
	}
	return limits
}

func headerInt(header http.Header, name string) (int, bool) {
	value := header.Get(name)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func bodyRateLimit(data json.RawMessage) (models.RateLimitStatus, bool) {
	if len(data) == 0 {
		return models.RateLimitStatus{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.RateLimitStatus{}, false
	}

	raw, ok := fields["rateLimit"]
	if !ok {
		return models.RateLimitStatus{}, false
	}

	var status struct {
		Limit     int   `json:"limit"`
		Remaining int   `json:"remaining"`
		Used      int   `json:"used"`
		ResetAt   int64 `json:"resetAt"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return models.RateLimitStatus{}, false
	}

	return models.RateLimitStatus{
		Limit:     status.Limit,
		Remaining: status.Remaining,
		Used:      status.Used,
		ResetAt:   status.ResetAt,
	}, true
}
