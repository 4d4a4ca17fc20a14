package tree

// Resolve reads the value at p. A wildcard segment that is not final maps
// the remaining segments over every element of the array at that position,
// yielding one result per element; nested wildcards yield nested arrays.
// A final wildcard returns the array itself.
func Resolve(root any, p Path) (any, error) {
	return resolveFrom(root, p, 0)
}

// Get parses path and resolves it against root.
func Get(root any, path string) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return Resolve(root, p)
}

func resolveFrom(root any, p Path, start int) (any, error) {
	cur := root
	for i := start; i < len(p); i++ {
		seg := p[i]
		switch seg.Kind {
		case SegWildcard:
			arr, ok := cur.([]any)
			if !ok {
				return nil, pathErr(p, i, cur, "wildcard requires an array")
			}
			if i == len(p)-1 {
				return arr, nil
			}
			out := make([]any, len(arr))
			for j, el := range arr {
				v, err := resolveFrom(el, p, i+1)
				if err != nil {
					return nil, err
				}
				out[j] = v
			}
			return out, nil
		case SegAppend:
			return nil, pathErr(p, i, cur, "append marker is only valid on write paths")
		default:
			next, err := child(cur, p, i)
			if err != nil {
				return nil, err
			}
			cur = next
		}
	}
	return cur, nil
}

// child applies the single segment p[i] to node.
func child(node any, p Path, i int) (any, error) {
	seg := p[i]
	switch n := node.(type) {
	case *Record:
		return getField(n, p, i)
	case []any:
		if seg.Kind != SegIndex {
			return nil, pathErr(p, i, node, "non-numeric segment on array")
		}
		return getIndex(n, p, i)
	case map[string]any:
		return getKey(n, p, i)
	default:
		return nil, pathErr(p, i, node, "cannot descend into leaf %T", node)
	}
}

func getField(r *Record, p Path, i int) (any, error) {
	v, ok := r.Get(p[i].Name)
	if !ok {
		return nil, pathErr(p, i, r, "no such field")
	}
	return v, nil
}

func getIndex(a []any, p Path, i int) (any, error) {
	idx := p[i].Index
	if idx < 0 || idx >= len(a) {
		return nil, pathErr(p, i, a, "index %d out of range [0,%d)", idx, len(a))
	}
	return a[idx], nil
}

func getKey(m map[string]any, p Path, i int) (any, error) {
	v, ok := m[p[i].Name]
	if !ok {
		return nil, pathErr(p, i, m, "no such key")
	}
	return v, nil
}
