package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gql-cache/internal/models"
)

func TestBuildCombined_SingleOperation(t *testing.T) {
	ops := []*models.BatchOperation{
		models.NewBatchOperation("op-0", models.OperationQuery,
			"repository(owner: $owner, name: $name) { stargazerCount }",
			map[string]interface{}{"owner": "golang", "name": "go"}),
	}

	combined, err := buildCombined(ops)

	require.NoError(t, err)
	assert.Equal(t, []string{"query0"}, combined.aliases)
	assert.Contains(t, combined.query, "query0: repository(owner: $owner_0, name: $name_0)")
	assert.Contains(t, combined.query, "$owner_0: String!")
	assert.Contains(t, combined.query, "$name_0: String!")
	assert.Equal(t, map[string]interface{}{"owner_0": "golang", "name_0": "go"}, combined.variables)
}

func TestBuildCombined_MergesVariableNamespaces(t *testing.T) {
	ops := []*models.BatchOperation{
		models.NewBatchOperation("op-0", models.OperationQuery,
			"repository(owner: $owner) { name }",
			map[string]interface{}{"owner": "golang"}),
		models.NewBatchOperation("op-1", models.OperationQuery,
			"repository(owner: $owner) { name }",
			map[string]interface{}{"owner": "kubernetes"}),
	}

	combined, err := buildCombined(ops)

	require.NoError(t, err)
	assert.Equal(t, []string{"query0", "query1"}, combined.aliases)
	// Same variable name from two operations does not collide
	assert.Equal(t, "golang", combined.variables["owner_0"])
	assert.Equal(t, "kubernetes", combined.variables["owner_1"])
	assert.Contains(t, combined.query, "query0: repository(owner: $owner_0)")
	assert.Contains(t, combined.query, "query1: repository(owner: $owner_1)")
}

func TestBuildCombined_NoVariables(t *testing.T) {
	ops := []*models.BatchOperation{
		models.NewBatchOperation("op-0", models.OperationQuery, "viewer { login }", nil),
	}

	combined, err := buildCombined(ops)

	require.NoError(t, err)
	assert.Equal(t, "query {\n  query0: viewer { login }\n}", combined.query)
	assert.Empty(t, combined.variables)
}

func TestBuildCombined_MutationRoot(t *testing.T) {
	ops := []*models.BatchOperation{
		models.NewBatchOperation("op-0", models.OperationMutation,
			"addStar(input: {starrableId: $id}) { clientMutationId }",
			map[string]interface{}{"id": "abc"}),
	}

	combined, err := buildCombined(ops)

	require.NoError(t, err)
	assert.Contains(t, combined.query, "mutation (")
}

func TestBuildCombined_MixedKinds(t *testing.T) {
	ops := []*models.BatchOperation{
		models.NewBatchOperation("op-0", models.OperationQuery, "viewer { login }", nil),
		models.NewBatchOperation("op-1", models.OperationMutation, "addStar(input: {}) { clientMutationId }", nil),
	}

	_, err := buildCombined(ops)

	assert.ErrorContains(t, err, "cannot mix")
}

func TestBuildCombined_EmptyBatch(t *testing.T) {
	_, err := buildCombined(nil)

	assert.Error(t, err)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string", "x", "String!"},
		{"bool", true, "Boolean!"},
		{"int", 7, "Int!"},
		{"whole float", float64(3), "Int!"},
		{"fractional float", 3.5, "Float!"},
		{"string list", []interface{}{"a"}, "[String!]!"},
		{"nil", nil, "String"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inferType(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferType_Unsupported(t *testing.T) {
	_, err := inferType(map[string]interface{}{"nested": 1})

	assert.Error(t, err)
}
