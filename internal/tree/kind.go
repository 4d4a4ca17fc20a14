// Package tree implements path-addressed reads and structurally-shared
// writes over heterogeneous state trees.
//
// A tree is any Go value composed of three container kinds: *Record
// (fixed-shape named fields), []any (ordered array) and map[string]any
// (string-keyed map). Every other value is a leaf. JSON and YAML documents
// decoded into `any` are trees without conversion.
package tree

// Kind classifies a node of a state tree.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindRecord
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "leaf"
	}
}

// Array and Map name the two built-in container shapes.
type (
	Array = []any
	Map   = map[string]any
)

// KindOf is the single dispatch point over container kinds.
func KindOf(v any) Kind {
	switch v.(type) {
	case *Record:
		return KindRecord
	case []any:
		return KindArray
	case map[string]any:
		return KindMap
	default:
		return KindLeaf
	}
}
