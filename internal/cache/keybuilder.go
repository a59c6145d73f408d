package cache

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"

	"go-gql-cache/internal/interfaces"
)

// Ensure KeyBuilderImpl implements interfaces.KeyBuilder
var _ interfaces.KeyBuilder = (*KeyBuilderImpl)(nil)

// KeyBuilderImpl implements the KeyBuilder interface
type KeyBuilderImpl struct{}

// NewKeyBuilder creates a new KeyBuilder instance
func NewKeyBuilder() interfaces.KeyBuilder {
	return &KeyBuilderImpl{}
}

// Build creates a deterministic cache key for a GraphQL operation by
// hashing the query text together with its serialized variables
func (kb *KeyBuilderImpl) Build(query string, variables map[string]interface{}) (string, error) {
	if query == "" {
		return "", errors.New("query cannot be empty")
	}

	hasher := md5.New()
	hasher.Write([]byte(query))

	if len(variables) > 0 {
		// json.Marshal sorts map keys, so equal variable sets serialize
		// identically regardless of insertion order
		varsJSON, err := json.Marshal(variables)
		if err != nil {
			return "", fmt.Errorf("failed to marshal variables: %w", err)
		}
		hasher.Write(varsJSON)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
