package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRequiredInput is returned in debug mode when an input marked
	// Required resolved to nil.
	ErrRequiredInput = errors.New("required input missing")
	// ErrStepExecution wraps failures raised by a process's own code:
	// input functions, the step function, the output map or the gate.
	ErrStepExecution = errors.New("step execution failed")
)

// ProcessError is the single error surfaced for a failed run. It names the
// failing process and keeps the resolved call signature when one was built.
type ProcessError struct {
	Process string
	Index   int
	Err     error
	Args    []any
	Named   map[string]any
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to run %q (process %d): %v", e.Process, e.Index, e.Err)
	if dump := e.ArgsDump(); dump != "" {
		b.WriteString("\n  args: ")
		b.WriteString(dump)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ArgsDump serializes the resolved arguments for human inspection.
// It returns "" when no arguments were resolved.
func (e *ProcessError) ArgsDump() string {
	if len(e.Args) == 0 && len(e.Named) == 0 {
		return ""
	}
	payload := map[string]any{"args": e.Args, "kwargs": e.Named}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("args=%v kwargs=%v", e.Args, e.Named)
	}
	return string(b)
}

// stepFailure marks err as raised by process code unless it already carries
// a more specific kind.
func stepFailure(stage string, err error) error {
	if errors.Is(err, ErrStepExecution) || errors.Is(err, ErrRequiredInput) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStepExecution, stage, err)
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
