package batch

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go-gql-cache/internal/models"
)

var variableRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// combinedRequest is one physical request carrying a whole batch
type combinedRequest struct {
	query     string
	variables map[string]interface{}
	aliases   []string // alias per operation, in enqueue order
}

// buildCombined merges a batch of operations into a single GraphQL
// document. Each operation's selection is aliased (`query0`, `query1`, ...)
// and its variable references are suffixed with the operation index so the
// merged variable namespace has no collisions.
func buildCombined(ops []*models.BatchOperation) (*combinedRequest, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("cannot combine empty batch")
	}

	kind := ops[0].Kind
	for _, op := range ops[1:] {
		if op.Kind != kind {
			return nil, fmt.Errorf("cannot mix queries and mutations in one batch")
		}
	}

	var (
		decls     []string
		selection strings.Builder
		variables = make(map[string]interface{})
		aliases   = make([]string, len(ops))
	)

	for i, op := range ops {
		alias := fmt.Sprintf("query%d", i)
		aliases[i] = alias

		suffixed := variableRef.ReplaceAllString(op.Query, fmt.Sprintf("$$${1}_%d", i))
		selection.WriteString(fmt.Sprintf("  %s: %s\n", alias, suffixed))

		names := make([]string, 0, len(op.Variables))
		for name := range op.Variables {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := op.Variables[name]
			gqlType, err := inferType(value)
			if err != nil {
				return nil, fmt.Errorf("operation %s variable %q: %w", op.ID, name, err)
			}
			merged := fmt.Sprintf("%s_%d", name, i)
			decls = append(decls, fmt.Sprintf("$%s: %s", merged, gqlType))
			variables[merged] = value
		}
	}

	root := "query"
	if kind == models.OperationMutation {
		root = "mutation"
	}

	var doc strings.Builder
	doc.WriteString(root)
	if len(decls) > 0 {
		doc.WriteString(fmt.Sprintf(" (%s)", strings.Join(decls, ", ")))
	}
	doc.WriteString(" {\n")
	doc.WriteString(selection.String())
	doc.WriteString("}")

	return &combinedRequest{
		query:     doc.String(),
		variables: variables,
		aliases:   aliases,
	}, nil
}

// inferType maps a variable value to a GraphQL type declaration. Values
// decoded from JSON arrive as float64, so whole floats declare as Int.
func inferType(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return "String!", nil
	case bool:
		return "Boolean!", nil
	case int, int32, int64:
		return "Int!", nil
	case float32:
		return floatType(float64(v)), nil
	case float64:
		return floatType(v), nil
	case []interface{}:
		if len(v) == 0 {
			return "[String!]!", nil
		}
		inner, err := inferType(v[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s]!", inner), nil
	case nil:
		return "String", nil
	default:
		return "", fmt.Errorf("unsupported variable type %T", value)
	}
}

func floatType(v float64) string {
	if v == float64(int64(v)) {
		return "Int!"
	}
	return "Float!"
}
