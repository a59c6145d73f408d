package models

import "encoding/json"

// GraphQLRequest is the JSON envelope posted to the remote endpoint
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLErrorDetail is one structured error returned by the remote service
type GraphQLErrorDetail struct {
	Message string   `json:"message"`
	Type    string   `json:"type,omitempty"`
	Path    []string `json:"path,omitempty"`
}

// GraphQLResponse is the decoded body of a GraphQL HTTP response.
// RateLimits carries per-category quota metadata when the response
// included any (from the rateLimit field or response headers).
type GraphQLResponse struct {
	Data       json.RawMessage            `json:"data"`
	Errors     []GraphQLErrorDetail       `json:"errors,omitempty"`
	RateLimits map[string]RateLimitStatus `json:"-"`
}

// HasErrors reports whether the remote service returned structured errors
func (r *GraphQLResponse) HasErrors() bool {
	return len(r.Errors) > 0
}

// Repository is the typed result of the repository point lookup
type Repository struct {
	Name           string `json:"name"`
	Owner          string `json:"owner"`
	Description    string `json:"description"`
	StargazerCount int    `json:"stargazerCount"`
	URL            string `json:"url"`
	UpdatedAt      string `json:"updatedAt"`
}

// RepositoryList is the typed result of the repository list query
type RepositoryList struct {
	TotalCount   int          `json:"totalCount"`
	Repositories []Repository `json:"repositories"`
}

// SearchResult is the typed result of the repository search query
type SearchResult struct {
	TotalCount   int          `json:"totalCount"`
	Repositories []Repository `json:"repositories"`
}
