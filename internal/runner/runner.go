// Package runner folds an ordered list of processes over a state tree.
package runner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/clock"
	"github.com/agentic-research/proflow/internal/tree"
)

// Runner executes processes against one session: the read-only source
// trees, a clock and a log table. The clock and log table are mutated in
// place across runs until Reset.
//
// A Runner is not safe for concurrent use.
type Runner struct {
	config     any
	parameters any
	external   any

	debug     bool
	immutable bool

	clock   *clock.Manager
	logs    *LogTable
	timings []Timing
	logger  *slog.Logger

	state    any
	hasState bool
}

// Option configures a Runner.
type Option func(*Runner)

func WithConfig(config any) Option { return func(r *Runner) { r.config = config } }

func WithParameters(parameters any) Option { return func(r *Runner) { r.parameters = parameters } }

func WithExternal(external any) Option { return func(r *Runner) { r.external = external } }

// WithDebug enables required-input assertions and timing records.
func WithDebug(debug bool) Option { return func(r *Runner) { r.debug = debug } }

// WithImmutable deep-copies the state at the start of every step so that
// earlier snapshots held by the caller never change.
func WithImmutable(immutable bool) Option { return func(r *Runner) { r.immutable = immutable } }

// WithRowUnit sets the clock unit that advances the row index.
func WithRowUnit(u clock.Unit) Option { return func(r *Runner) { r.clock.RowUnit = u } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// New returns a Runner with an hour-per-row clock and an empty log table.
func New(opts ...Option) *Runner {
	r := &Runner{
		clock:  clock.New(clock.Hour),
		logs:   NewLogTable(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run folds processes over initial and returns the final state. A nil
// initial continues from the state returned by the previous Run. On error
// no state is returned and the runner's current state is unchanged.
func (r *Runner) Run(processes []api.Process, initial any) (any, error) {
	state := initial
	if state == nil && r.hasState {
		state = r.state
	}
	for i := range processes {
		next, err := r.runProcess(i, &processes[i], state)
		if err != nil {
			return nil, err
		}
		state = next
	}
	r.state = state
	r.hasState = true
	return state, nil
}

// Initialize binds processes for repeated application.
func (r *Runner) Initialize(processes []api.Process) func(initial any) (any, error) {
	return func(initial any) (any, error) {
		return r.Run(processes, initial)
	}
}

// Reset clears the clock, the log table and timing records.
func (r *Runner) Reset() {
	r.clock.Reset()
	r.logs.Reset()
	r.timings = nil
	r.state = nil
	r.hasState = false
}

// ResetLogs clears timing records only.
func (r *Runner) ResetLogs() { r.timings = nil }

// Clock exposes the session clock.
func (r *Runner) Clock() *clock.Manager { return r.clock }

// Logs returns a snapshot of the log table.
func (r *Runner) Logs() []map[string]any { return r.logs.Rows() }

// LogTable exposes the session log table.
func (r *Runner) LogTable() *LogTable { return r.logs }

// Timings returns the debug-mode timing records in execution order.
func (r *Runner) Timings() []Timing {
	out := make([]Timing, len(r.timings))
	copy(out, r.timings)
	return out
}

// State returns the state produced by the last successful Run.
func (r *Runner) State() any { return r.state }

func (r *Runner) runProcess(i int, p *api.Process, state any) (any, error) {
	var (
		next any
		err  error
	)
	switch p.Type {
	case api.Time:
		next, err = r.runTime(p, state)
	case api.Log:
		next, err = r.runLog(p, state)
	case api.Standard:
		next, err = r.runStandard(p, state)
	default:
		err = fmt.Errorf("unknown process type %d", p.Type)
	}
	if err != nil {
		if pe, ok := err.(*ProcessError); ok {
			pe.Index = i
			return nil, pe
		}
		return nil, &ProcessError{Process: p.ID(), Index: i, Err: err}
	}
	return next, nil
}

func (r *Runner) open(p *api.Process, state any) (bool, error) {
	var open bool
	err := guard(func() error {
		open = p.Open(state)
		return nil
	})
	if err != nil {
		return false, stepFailure("gate", err)
	}
	if !open {
		r.logger.Debug("gate closed", "process", p.ID())
	}
	return open, nil
}

func (r *Runner) runStandard(p *api.Process, state any) (any, error) {
	if r.immutable {
		state = tree.DeepCopy(state)
	}
	open, err := r.open(p, state)
	if err != nil || !open {
		return state, err
	}
	if p.Func == nil {
		return nil, stepFailure("call", fmt.Errorf("process has no step function"))
	}
	r.logger.Debug("run process", "process", p.ID(), "type", p.Type, "row", r.clock.RowIndex)

	start := time.Now()
	args, err := r.resolveInputs(p, state)
	if err != nil {
		return nil, r.failure(p, err, args)
	}
	inputDone := time.Now()

	var result any
	err = guard(func() error {
		var err error
		result, err = p.Func(args)
		return err
	})
	if err != nil {
		return nil, r.failure(p, stepFailure("call", err), args)
	}
	callDone := time.Now()

	var outputs []api.Output
	if p.StateOutputs != nil {
		err = guard(func() error {
			var err error
			outputs, err = p.StateOutputs(result)
			return err
		})
		if err != nil {
			return nil, r.failure(p, stepFailure("output map", err), args)
		}
	}
	next, err := commitStrategy(p)(state, outputs, result)
	if err != nil {
		return nil, r.failure(p, err, args)
	}
	end := time.Now()

	if r.debug {
		r.timings = append(r.timings, Timing{
			ID:     p.ID(),
			Group:  p.Group,
			Type:   p.Type,
			Row:    r.clock.RowIndex,
			Input:  inputDone.Sub(start),
			Call:   callDone.Sub(inputDone),
			Output: end.Sub(callDone),
			Total:  end.Sub(start),
		})
	}
	return next, nil
}

func (r *Runner) runTime(p *api.Process, state any) (any, error) {
	open, err := r.open(p, state)
	if err != nil || !open {
		return state, err
	}
	if p.TimeFunc == nil {
		return nil, stepFailure("time", fmt.Errorf("time process has no time function"))
	}
	if err := guard(func() error { return p.TimeFunc(r.clock) }); err != nil {
		return nil, stepFailure("time", err)
	}
	r.logger.Debug("clock advanced", "process", p.ID(), "clock", r.clock.String())
	return state, nil
}

func (r *Runner) runLog(p *api.Process, state any) (any, error) {
	open, err := r.open(p, state)
	if err != nil || !open {
		return state, err
	}
	args, err := r.resolveInputs(p, state)
	if err != nil {
		return nil, r.failure(p, err, args)
	}
	r.logs.Merge(r.clock.RowIndex, args.Named)
	return state, nil
}

func (r *Runner) failure(p *api.Process, err error, args api.Args) error {
	pe := &ProcessError{Process: p.ID(), Err: err, Args: args.Positional}
	if len(args.Named) > 0 {
		pe.Named = args.Named
	}
	return pe
}
