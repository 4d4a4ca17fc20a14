package tree

// Write returns a new root in which the value at p is replaced by v.
//
// Only the containers on the path are copied; every other subtree of the
// result is the identical value found in root, and root itself is never
// modified. A final append marker appends v to the addressed array.
// Wildcards are rejected: a write addresses exactly one location.
func Write(root any, p Path, v any) (any, error) {
	if len(p) == 0 {
		return nil, pathErr(p, -1, root, "empty write path")
	}
	if p.HasWildcard() {
		for i, s := range p {
			if s.Kind == SegWildcard {
				return nil, pathErr(p, i, nil, "wildcard not allowed on write paths")
			}
		}
	}
	last := len(p) - 1

	// ancestors[i] is the node that segment p[i] is applied to.
	ancestors := make([]any, len(p))
	cur := root
	for i := 0; i < last; i++ {
		if p[i].Kind == SegAppend {
			return nil, pathErr(p, i, cur, "append marker must be final")
		}
		ancestors[i] = cur
		next, err := child(cur, p, i)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	ancestors[last] = cur

	built, err := withChild(ancestors[last], p, last, v)
	if err != nil {
		return nil, err
	}
	for i := last - 1; i >= 0; i-- {
		built, err = withChild(ancestors[i], p, i, built)
		if err != nil {
			return nil, err
		}
	}
	return built, nil
}

// Set parses path and writes v at it.
func Set(root any, path string, v any) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return Write(root, p, v)
}

// Append writes v as a new final element of the array addressed by p.
func Append(root any, p Path, v any) (any, error) {
	if !p.IsAppend() {
		p = p.Child(Segment{Kind: SegAppend})
	}
	return Write(root, p, v)
}

// withChild returns a shallow copy of node with the child addressed by
// p[i] replaced by v.
func withChild(node any, p Path, i int, v any) (any, error) {
	seg := p[i]
	switch n := node.(type) {
	case *Record:
		if seg.Kind == SegAppend {
			return nil, pathErr(p, i, node, "cannot append to a record")
		}
		out, err := n.With(seg.Name, v)
		if err != nil {
			return nil, pathErr(p, i, node, "no such field")
		}
		return out, nil
	case []any:
		switch seg.Kind {
		case SegAppend:
			out := make([]any, len(n), len(n)+1)
			copy(out, n)
			return append(out, v), nil
		case SegIndex:
			if seg.Index >= len(n) {
				return nil, pathErr(p, i, node, "index %d out of range [0,%d)", seg.Index, len(n))
			}
			out := make([]any, len(n))
			copy(out, n)
			out[seg.Index] = v
			return out, nil
		default:
			return nil, pathErr(p, i, node, "non-numeric segment on array")
		}
	case map[string]any:
		if seg.Kind == SegAppend {
			return nil, pathErr(p, i, node, "cannot append to a map")
		}
		out := make(map[string]any, len(n)+1)
		for k, val := range n {
			out[k] = val
		}
		out[seg.Name] = v
		return out, nil
	default:
		return nil, pathErr(p, i, node, "cannot write into leaf %T", node)
	}
}
