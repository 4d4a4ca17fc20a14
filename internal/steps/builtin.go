// Package steps provides reusable step functions and process constructors.
package steps

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/tree"
)

var (
	ErrUnknownStep    = errors.New("unknown step")
	ErrNotImplemented = errors.New("step not implemented")
	ErrDivideByZero   = errors.New("division by zero")
)

// Registry maps step names used in definition files to step functions.
type Registry map[string]api.Func

// Builtins returns a fresh registry of the builtin steps. Callers may add
// their own entries.
func Builtins() Registry {
	return Registry{
		"add":       Add,
		"sub":       Sub,
		"multiply":  Multiply,
		"divide":    Divide,
		"set":       Set,
		"identity":  Identity,
		"sum":       Sum,
		"mean":      Mean,
		"len":       Len,
		"log_value": LogValue,
	}
}

// Lookup returns the step registered under name.
func (r Registry) Lookup(name string) (api.Func, error) {
	fn, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	return fn, nil
}

// Names lists registered steps, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// operands reads the binary operands from named x and y, falling back to
// the first two positional arguments.
func operands(args api.Args) (float64, float64, error) {
	if _, ok := args.Get("x"); ok {
		x, err := args.Float("x")
		if err != nil {
			return 0, 0, err
		}
		y, err := args.Float("y")
		if err != nil {
			return 0, 0, err
		}
		return x, y, nil
	}
	x, err := args.FloatAt(0)
	if err != nil {
		return 0, 0, err
	}
	y, err := args.FloatAt(1)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func Add(args api.Args) (any, error) {
	x, y, err := operands(args)
	if err != nil {
		return nil, err
	}
	return x + y, nil
}

func Sub(args api.Args) (any, error) {
	x, y, err := operands(args)
	if err != nil {
		return nil, err
	}
	return x - y, nil
}

func Multiply(args api.Args) (any, error) {
	x, y, err := operands(args)
	if err != nil {
		return nil, err
	}
	return x * y, nil
}

func Divide(args api.Args) (any, error) {
	x, y, err := operands(args)
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, ErrDivideByZero
	}
	return x / y, nil
}

// Set returns the named argument "value", or the first positional one.
func Set(args api.Args) (any, error) {
	if v, ok := args.Get("value"); ok {
		return v, nil
	}
	return args.At(0)
}

// Identity returns the first positional argument, or nil.
func Identity(args api.Args) (any, error) {
	if len(args.Positional) == 0 {
		return nil, nil
	}
	return args.Positional[0], nil
}

// numbers collects the values to aggregate: the named "values" argument when
// present, otherwise every positional argument. Arrays are expanded one
// level.
func numbers(args api.Args) ([]float64, error) {
	var raw []any
	if v, ok := args.Get("values"); ok {
		raw = []any{v}
	} else {
		raw = args.Positional
	}
	var out []float64
	add := func(v any) error {
		f, ok := tree.AsFloat(v)
		if !ok {
			return fmt.Errorf("want number, got %T", v)
		}
		out = append(out, f)
		return nil
	}
	for _, v := range raw {
		if a, ok := v.([]any); ok {
			for _, e := range a {
				if err := add(e); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func Sum(args api.Args) (any, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, n := range ns {
		total += n
	}
	return total, nil
}

func Mean(args api.Args) (any, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return nil, fmt.Errorf("mean of no values")
	}
	var total float64
	for _, n := range ns {
		total += n
	}
	return total / float64(len(ns)), nil
}

// Len returns the size of a container or string: the named "values"
// argument, or the first positional one.
func Len(args api.Args) (any, error) {
	v, ok := args.Get("values")
	if !ok {
		var err error
		if v, err = args.At(0); err != nil {
			return nil, err
		}
	}
	switch c := v.(type) {
	case []any:
		return len(c), nil
	case map[string]any:
		return len(c), nil
	case *tree.Record:
		return c.Len(), nil
	case string:
		return len(c), nil
	default:
		return nil, fmt.Errorf("len of %T", v)
	}
}

// LogValue returns the named arguments as a map, for routing several
// values through path-resolved outputs.
func LogValue(args api.Args) (any, error) {
	return maps.Clone(args.Named), nil
}

// NotImplementedFunc always fails.
func NotImplementedFunc(api.Args) (any, error) {
	return nil, ErrNotImplemented
}
