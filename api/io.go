package api

import (
	"fmt"

	"github.com/agentic-research/proflow/internal/tree"
)

// ResultPath addresses the whole result in a path-resolved output.
const ResultPath = "_result"

// Input binds a resolved value to a call argument. An empty As makes the
// value positional.
type Input struct {
	Value    any
	As       string
	Required bool   // asserted non-nil in debug mode
	From     string // declared source path, for diagnostics only
}

// I binds v to the named argument as.
func I(v any, as string) Input {
	return Input{Value: v, As: as}
}

// Pos makes v a positional argument.
func Pos(v any) Input {
	return Input{Value: v}
}

// Output is one write produced by a step. To is a write path in the state
// tree. Value is written as-is unless the process uses FormatOutput, in
// which case From is resolved against the result first.
type Output struct {
	Value any
	From  string
	To    string
}

// O writes v to path to.
func O(v any, to string) Output {
	return Output{Value: v, To: to}
}

// Decl declares one path-addressed input for Bind.
type Decl struct {
	From     string
	As       string
	Required bool
}

// Bind resolves each declared path against src.
func Bind(src any, decls ...Decl) ([]Input, error) {
	out := make([]Input, 0, len(decls))
	for _, d := range decls {
		p, err := tree.ParsePath(d.From)
		if err != nil {
			return nil, err
		}
		v, err := tree.Resolve(src, p)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", d.From, err)
		}
		out = append(out, Input{Value: v, As: d.As, Required: d.Required, From: d.From})
	}
	return out, nil
}

// Args is the resolved call signature of a step.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Get returns a named argument.
func (a Args) Get(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// Float returns a named numeric argument.
func (a Args) Float(name string) (float64, error) {
	v, ok := a.Named[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	f, ok := tree.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("argument %q: want number, got %T", name, v)
	}
	return f, nil
}

// String returns a named string argument.
func (a Args) String(name string) (string, error) {
	v, ok := a.Named[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: want string, got %T", name, v)
	}
	return s, nil
}

// At returns the i-th positional argument.
func (a Args) At(i int) (any, error) {
	if i < 0 || i >= len(a.Positional) {
		return nil, fmt.Errorf("missing positional argument %d (have %d)", i, len(a.Positional))
	}
	return a.Positional[i], nil
}

// FloatAt returns the i-th positional argument as a number.
func (a Args) FloatAt(i int) (float64, error) {
	v, err := a.At(i)
	if err != nil {
		return 0, err
	}
	f, ok := tree.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("positional argument %d: want number, got %T", i, v)
	}
	return f, nil
}
