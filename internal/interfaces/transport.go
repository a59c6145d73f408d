package interfaces

import (
	"context"

	"go-gql-cache/internal/models"
)

//go:generate mockgen -package=mock -source=transport.go -destination=mock/transport.go

// Transport executes one GraphQL request against the remote endpoint.
// Implementations return a *models.TransportError for network/HTTP level
// failures; a response whose Errors field is populated is not an error at
// this layer.
type Transport interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}) (*models.GraphQLResponse, error)
}
