package models

import (
	"fmt"
	"strings"
)

// TransportError wraps a network or HTTP level failure. It is never
// retried here; callers see it unchanged.
type TransportError struct {
	Op  string // operation being performed, e.g. "graphql_query"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GraphQLError carries the structured errors the remote service returned
// for a query, together with the query for diagnosis.
type GraphQLError struct {
	Query  string
	Errors []GraphQLErrorDetail
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, detail := range e.Errors {
		msgs[i] = detail.Message
	}
	return fmt.Sprintf("graphql error: %s", strings.Join(msgs, "; "))
}
