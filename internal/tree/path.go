package tree

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Wildcard fans a read out across every element of an array.
	Wildcard = "_"
	// AppendMarker as the final write segment appends to an array.
	AppendMarker = "+"
	// Separator joins segments in the text form of a path.
	Separator = "."
)

// SegmentKind distinguishes the four kinds of path segment.
type SegmentKind uint8

const (
	SegName SegmentKind = iota
	SegIndex
	SegWildcard
	SegAppend
)

// Segment is one step of a Path. Index segments keep their text in Name so
// they can still address a map key such as "0".
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// Name builds a field/key segment.
func Name(name string) Segment { return Segment{Kind: SegName, Name: name} }

// Index builds an array index segment.
func Index(i int) Segment { return Segment{Kind: SegIndex, Name: strconv.Itoa(i), Index: i} }

func (s Segment) String() string {
	switch s.Kind {
	case SegWildcard:
		return Wildcard
	case SegAppend:
		return AppendMarker
	default:
		return s.Name
	}
}

// Path is an ordered list of segments addressing a location in a tree.
type Path []Segment

// ParsePath parses the dot-separated text form, e.g. "matrix._.1" or "logs.+".
// The empty string is the empty path (the root).
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, Separator)
	p := make(Path, 0, len(parts))
	for i, part := range parts {
		switch {
		case part == "":
			return nil, fmt.Errorf("path %q: empty segment at position %d", s, i)
		case part == Wildcard:
			p = append(p, Segment{Kind: SegWildcard})
		case part == AppendMarker:
			if i != len(parts)-1 {
				return nil, fmt.Errorf("path %q: append marker must be the final segment", s)
			}
			p = append(p, Segment{Kind: SegAppend})
		default:
			if n, err := strconv.Atoi(part); err == nil && n >= 0 && isDigits(part) {
				p = append(p, Segment{Kind: SegIndex, Name: part, Index: n})
				continue
			}
			p = append(p, Segment{Kind: SegName, Name: part})
		}
	}
	return p, nil
}

// MustParsePath is ParsePath for literals; it panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, Separator)
}

// HasWildcard reports whether any segment is a wildcard.
func (p Path) HasWildcard() bool {
	for _, s := range p {
		if s.Kind == SegWildcard {
			return true
		}
	}
	return false
}

// IsAppend reports whether the final segment is the append marker.
func (p Path) IsAppend() bool {
	return len(p) > 0 && p[len(p)-1].Kind == SegAppend
}

// Child returns a new path with seg appended. The receiver is not aliased.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}
