package pipeline

import (
	"fmt"
	"strings"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/tree"
)

// compileGate builds a gate comparing the state value at g.Path with
// g.Value. A missing path keeps the gate closed. Without an op the gate
// tests truthiness when no value is given and equality otherwise.
func compileGate(g api.GateSpec) (api.Gate, error) {
	p, err := tree.ParsePath(g.Path)
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}
	op := strings.ToLower(g.Op)
	if op == "" {
		op = api.OpTruthy
		if g.Value != nil {
			op = api.OpEQ
		}
	}
	var test func(v any) bool
	switch op {
	case api.OpTruthy:
		test = truthy
	case api.OpEQ:
		test = func(v any) bool { return tree.Equal(v, g.Value) }
	case api.OpNE:
		test = func(v any) bool { return !tree.Equal(v, g.Value) }
	case api.OpLT, api.OpLE, api.OpGT, api.OpGE:
		test = func(v any) bool {
			c, ok := compare(v, g.Value)
			if !ok {
				return false
			}
			switch op {
			case api.OpLT:
				return c < 0
			case api.OpLE:
				return c <= 0
			case api.OpGT:
				return c > 0
			default:
				return c >= 0
			}
		}
	default:
		return nil, fmt.Errorf("gate: unknown op %q", g.Op)
	}
	return func(state any) bool {
		v, err := tree.Resolve(state, p)
		if err != nil {
			return false
		}
		return test(v)
	}, nil
}

// compare orders numbers numerically and strings lexically.
func compare(a, b any) (int, bool) {
	if x, ok := tree.AsFloat(a); ok {
		y, ok := tree.AsFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	x, ok1 := a.(string)
	y, ok2 := b.(string)
	if !ok1 || !ok2 {
		return 0, false
	}
	return strings.Compare(x, y), true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case *tree.Record:
		return x.Len() > 0
	}
	if f, ok := tree.AsFloat(v); ok {
		return f != 0
	}
	return true
}
