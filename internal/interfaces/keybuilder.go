package interfaces

//go:generate mockgen -package=mock -source=keybuilder.go -destination=mock/keybuilder.go

// KeyBuilder canonizes GraphQL operations into deterministic cache keys
type KeyBuilder interface {
	// Build hashes the query text and its serialized variables
	Build(query string, variables map[string]interface{}) (string, error)
}
