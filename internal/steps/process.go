package steps

import (
	"fmt"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/clock"
)

// SetValue writes a constant to the state at path to.
func SetValue(to string, value any) api.Process {
	return api.Process{
		Comment: "set " + to,
		Func:    Set,
		AdditionalInputs: func() ([]api.Input, error) {
			return []api.Input{api.I(value, "value")}, nil
		},
		StateOutputs: func(result any) ([]api.Output, error) {
			return []api.Output{api.O(result, to)}, nil
		},
	}
}

// AdvanceTimeStep moves the clock forward by rows rows.
func AdvanceTimeStep(rows int) api.Process {
	return api.Process{
		Type:     api.Time,
		Comment:  "advance time",
		TimeFunc: func(tm *clock.Manager) error { tm.AdvanceRow(rows); return nil },
	}
}

// AdvanceUnit moves the clock forward by `by` units of u.
func AdvanceUnit(u clock.Unit, by int) api.Process {
	return api.Process{
		Type:     api.Time,
		Comment:  fmt.Sprintf("advance %d %s", by, u),
		TimeFunc: func(tm *clock.Manager) error { tm.Advance(u, by); return nil },
	}
}

// LogValues records state values into the log table at the current row.
func LogValues(decls ...api.Decl) api.Process {
	return api.Process{
		Type:    api.Log,
		Comment: "log values",
		StateInputs: func(state any) ([]api.Input, error) {
			return api.Bind(state, decls...)
		},
	}
}

// NotImplemented is a placeholder that fails when run.
func NotImplemented(name string) api.Process {
	return api.Process{Comment: name, Func: NotImplementedFunc}
}

// Skip is a process that never runs.
func Skip() api.Process {
	return api.Process{Comment: "skip", Func: Identity, Gate: api.When(false)}
}

// Group tags processes with a group name. The inputs are not modified.
func Group(name string, processes ...api.Process) []api.Process {
	out := make([]api.Process, len(processes))
	for i, p := range processes {
		p.Group = name
		out[i] = p
	}
	return out
}

// Switch picks the process list registered under key, or def when none is.
func Switch(key string, options map[string][]api.Process, def []api.Process) []api.Process {
	if ps, ok := options[key]; ok {
		return ps
	}
	return def
}

// Flatten builds a process list from processes, pointers and nested
// lists. Nil entries are dropped.
func Flatten(items ...any) ([]api.Process, error) {
	var out []api.Process
	var walk func(v any) error
	walk = func(v any) error {
		switch x := v.(type) {
		case nil:
		case api.Process:
			out = append(out, x)
		case *api.Process:
			if x != nil {
				out = append(out, *x)
			}
		case []api.Process:
			out = append(out, x...)
		case [][]api.Process:
			for _, ps := range x {
				out = append(out, ps...)
			}
		case []any:
			for _, e := range x {
				if err := walk(e); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("flatten: unsupported item %T", v)
		}
		return nil
	}
	for _, it := range items {
		if err := walk(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}
