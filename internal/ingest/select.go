package ingest

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/proflow/internal/tree"
)

// SelectRows evaluates a JSONPath selector against doc and returns the
// matches in document order. A selector matching a single array returns
// that array's elements, so "$.prices" and "$.prices[*]" select the same
// rows.
func SelectRows(doc any, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	results := x.Get(doc)
	if len(results) == 1 {
		if rows, ok := results[0].([]any); ok {
			return rows, nil
		}
	}
	return results, nil
}

// Query resolves expr against doc. Expressions starting with "$" are
// JSONPath and always yield a list; anything else is a dot path.
func Query(doc any, expr string) (any, error) {
	if strings.HasPrefix(expr, "$") {
		x, err := jp.ParseString(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonpath '%s': %w", expr, err)
		}
		return x.Get(doc), nil
	}
	return tree.Get(doc, expr)
}
