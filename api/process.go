// Package api declares the contract for one pipeline step.
//
// A Process never touches the state tree directly. It declares where its
// inputs come from (five input functions, one per source) and where its
// result goes (an output function returning value/path pairs); the runner
// does the reading, calling and committing.
package api

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/agentic-research/proflow/internal/clock"
)

// ProcessType selects how the runner treats a process.
type ProcessType int

const (
	// Standard processes resolve inputs, call Func and commit outputs.
	Standard ProcessType = iota
	// Time processes call TimeFunc with the runner's clock.
	Time
	// Log processes merge their named inputs into the log table row.
	Log
)

func (t ProcessType) String() string {
	switch t {
	case Time:
		return "time"
	case Log:
		return "log"
	default:
		return "standard"
	}
}

// Func is a step function. Args carries the resolved call signature.
type Func func(args Args) (any, error)

// TimeFunc is the side-effecting call made by Time processes.
type TimeFunc func(tm *clock.Manager) error

// Gate decides per invocation whether a process runs. It sees the state as
// it is before the process. A nil Gate is open.
type Gate func(state any) bool

// When returns a static gate.
func When(open bool) Gate {
	return func(any) bool { return open }
}

// Input functions, one per source tree.
type (
	StateInputs      func(state any) ([]Input, error)
	ConfigInputs     func(config any) ([]Input, error)
	ParametersInputs func(parameters any) ([]Input, error)
	ExternalInputs   func(external any, row int) ([]Input, error)
	AdditionalInputs func() ([]Input, error)
)

// OutputMap turns a step result into writes.
type OutputMap func(result any) ([]Output, error)

// Process is the immutable descriptor of one pipeline step.
type Process struct {
	Func     Func
	TimeFunc TimeFunc
	Type     ProcessType
	Gate     Gate

	// Comment identifies the process in errors and timings; Group tags it
	// for diagnostics. Neither affects execution.
	Comment string
	Group   string

	StateInputs      StateInputs
	ConfigInputs     ConfigInputs
	ParametersInputs ParametersInputs
	ExternalInputs   ExternalInputs
	AdditionalInputs AdditionalInputs

	StateOutputs OutputMap

	// Args are fixed positional arguments placed before any resolved ones.
	Args []any

	// FormatOutput selects the path-resolved commit: each Output.From is a
	// path into the result ("_result" for the whole result) instead of a
	// precomputed Value.
	FormatOutput bool
}

// ID is the comment, falling back to the step function's name.
func (p *Process) ID() string {
	if p.Comment != "" {
		return p.Comment
	}
	var fn any
	switch {
	case p.Func != nil:
		fn = p.Func
	case p.TimeFunc != nil:
		fn = p.TimeFunc
	default:
		return "unknown"
	}
	return funcName(fn)
}

func funcName(fn any) string {
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return "unknown"
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Open evaluates the gate.
func (p *Process) Open(state any) bool {
	return p.Gate == nil || p.Gate(state)
}
