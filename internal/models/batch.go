package models

import "encoding/json"

// OperationKind distinguishes queries from mutations in a batch
type OperationKind string

const (
	OperationQuery    OperationKind = "query"
	OperationMutation OperationKind = "mutation"
)

// BatchResult is the settled outcome of one batched operation.
// Exactly one of Data/Err is meaningful.
type BatchResult struct {
	Data json.RawMessage
	Err  error
}

// BatchOperation is one logical GraphQL operation waiting in a batch.
// Query holds a field selection (e.g. `repository(owner: $owner) { name }`)
// whose variable references are namespaced when the batch is combined.
type BatchOperation struct {
	ID        string
	Kind      OperationKind
	Query     string
	Variables map[string]interface{}

	done chan BatchResult
}

// NewBatchOperation creates an operation with an unsettled completion
func NewBatchOperation(id string, kind OperationKind, query string, variables map[string]interface{}) *BatchOperation {
	return &BatchOperation{
		ID:        id,
		Kind:      kind,
		Query:     query,
		Variables: variables,
		done:      make(chan BatchResult, 1),
	}
}

// Complete settles the operation. The channel is buffered so the batch
// scheduler never blocks on a caller that has stopped listening; only the
// first settlement is delivered.
func (op *BatchOperation) Complete(res BatchResult) {
	select {
	case op.done <- res:
	default:
	}
}

// Done returns the channel on which the settled result is delivered
func (op *BatchOperation) Done() <-chan BatchResult {
	return op.done
}
