package tree

import (
	"errors"
	"fmt"
)

// ErrPathNotFound is matched by every PathError.
var ErrPathNotFound = errors.New("path not found")

// PathError reports the segment at which a path stopped matching the tree.
type PathError struct {
	Path   Path
	Pos    int  // index of the failing segment
	Node   Kind // kind of the node the segment was applied to
	Reason string
}

func (e *PathError) Error() string {
	seg := "<root>"
	if e.Pos >= 0 && e.Pos < len(e.Path) {
		seg = e.Path[e.Pos].String()
	}
	return fmt.Sprintf("path %q: segment %q on %s: %s", e.Path.String(), seg, e.Node, e.Reason)
}

func (e *PathError) Unwrap() error { return ErrPathNotFound }

func pathErr(p Path, pos int, node any, reason string, args ...any) error {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &PathError{Path: p, Pos: pos, Node: KindOf(node), Reason: reason}
}
