package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Build_Deterministic(t *testing.T) {
	kb := NewKeyBuilder()

	key1, err := kb.Build("query { viewer { login } }", map[string]interface{}{"a": 1, "b": "two"})
	assert.NoError(t, err)

	key2, err := kb.Build("query { viewer { login } }", map[string]interface{}{"b": "two", "a": 1})
	assert.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 32) // md5 hex
}

func TestKeyBuilder_Build_DifferentVariables(t *testing.T) {
	kb := NewKeyBuilder()

	key1, err := kb.Build("query { viewer { login } }", map[string]interface{}{"id": 1})
	assert.NoError(t, err)

	key2, err := kb.Build("query { viewer { login } }", map[string]interface{}{"id": 2})
	assert.NoError(t, err)

	assert.NotEqual(t, key1, key2)
}

func TestKeyBuilder_Build_DifferentQueries(t *testing.T) {
	kb := NewKeyBuilder()

	key1, err := kb.Build("query { a }", nil)
	assert.NoError(t, err)

	key2, err := kb.Build("query { b }", nil)
	assert.NoError(t, err)

	assert.NotEqual(t, key1, key2)
}

func TestKeyBuilder_Build_NilVariables(t *testing.T) {
	kb := NewKeyBuilder()

	key1, err := kb.Build("query { a }", nil)
	assert.NoError(t, err)

	key2, err := kb.Build("query { a }", map[string]interface{}{})
	assert.NoError(t, err)

	assert.Equal(t, key1, key2)
}

func TestKeyBuilder_Build_EmptyQuery(t *testing.T) {
	kb := NewKeyBuilder()

	_, err := kb.Build("", nil)

	assert.Error(t, err)
}

func TestKeyBuilder_Build_UnmarshalableVariables(t *testing.T) {
	kb := NewKeyBuilder()

	_, err := kb.Build("query { a }", map[string]interface{}{"fn": func() {}})

	assert.Error(t, err)
}
