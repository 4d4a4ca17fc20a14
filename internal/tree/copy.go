package tree

import "reflect"

// DeepCopy returns a copy of v in which every container is fresh.
// Leaves are copied by value (pointers inside leaves are not followed).
func DeepCopy(v any) any {
	switch n := v.(type) {
	case *Record:
		if n == nil {
			return n
		}
		values := make([]any, len(n.values))
		for i, val := range n.values {
			values[i] = DeepCopy(val)
		}
		return &Record{shape: n.shape, values: values}
	case []any:
		if n == nil {
			return n
		}
		out := make([]any, len(n))
		for i, val := range n {
			out[i] = DeepCopy(val)
		}
		return out
	case map[string]any:
		if n == nil {
			return n
		}
		out := make(map[string]any, len(n))
		for k, val := range n {
			out[k] = DeepCopy(val)
		}
		return out
	default:
		return v
	}
}

// Equal reports structural equality of two trees. Numbers compare by value
// across Go numeric types so that 3 and 3.0 are equal.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	if fa, ok := AsFloat(a); ok {
		fb, ok := AsFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// Same reports whether a and b are the identical container (not merely
// equal). Leaves are never the same.
func Same(a, b any) bool {
	switch x := a.(type) {
	case *Record:
		y, ok := b.(*Record)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		return ok && len(x) == len(y) && reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	case map[string]any:
		y, ok := b.(map[string]any)
		return ok && reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	}
	return false
}
