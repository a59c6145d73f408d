package models

import "time"

// Rate limit categories metered independently by the remote API
const (
	CategoryCore    = "core"
	CategoryGraphQL = "graphql"
	CategorySearch  = "search"
)

// RateLimitStatus describes one quota category as last reported by the server
type RateLimitStatus struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Used      int   `json:"used"`
	ResetAt   int64 `json:"resetAt"` // epoch seconds
}

// TimeToReset returns the duration until the category's window resets,
// 0 if the reset moment has already passed
func (s RateLimitStatus) TimeToReset() time.Duration {
	d := time.Until(time.Unix(s.ResetAt, 0))
	if d < 0 {
		return 0
	}
	return d
}

// RateLimitSnapshot maps category names to their last reported status.
// Values are refreshed only from server responses, never decremented
// locally, so the snapshot is only as fresh as the last response.
type RateLimitSnapshot struct {
	Categories    map[string]RateLimitStatus `json:"categories"`
	LastCheckedAt time.Time                  `json:"last_checked_at"`
}
