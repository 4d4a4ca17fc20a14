package runner

import (
	"errors"
	"testing"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/clock"
	"github.com/agentic-research/proflow/internal/tree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(args api.Args) (any, error) {
	x, err := args.Float("x")
	if err != nil {
		return nil, err
	}
	y, err := args.Float("y")
	if err != nil {
		return nil, err
	}
	return x + y, nil
}

func addProcess() api.Process {
	return api.Process{
		Func: add,
		ConfigInputs: func(config any) ([]api.Input, error) {
			return api.Bind(config, api.Decl{From: "foo", As: "y"})
		},
		StateInputs: func(state any) ([]api.Input, error) {
			return api.Bind(state, api.Decl{From: "a", As: "x"})
		},
		StateOutputs: func(result any) ([]api.Output, error) {
			return []api.Output{api.O(result, "a")}, nil
		},
	}
}

func TestRun_AddTwice(t *testing.T) {
	r := New(WithConfig(map[string]any{"foo": 3}))
	run := r.Initialize([]api.Process{addProcess()})

	s1, err := run(map[string]any{"a": 0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, s1.(map[string]any)["a"])

	s2, err := run(s1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, s2.(map[string]any)["a"])
}

func TestRun_NilInitialContinuesSession(t *testing.T) {
	r := New(WithConfig(map[string]any{"foo": 3}))
	procs := []api.Process{addProcess()}

	_, err := r.Run(procs, map[string]any{"a": 1})
	require.NoError(t, err)
	out, err := r.Run(procs, nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, out.(map[string]any)["a"])
	assert.Equal(t, out, r.State())
}

func TestRun_ArgumentPrecedence(t *testing.T) {
	var got api.Args
	capture := func(args api.Args) (any, error) {
		got = args
		return nil, nil
	}
	named := func(src string) []api.Input {
		return []api.Input{api.I(src, "v"), api.I(src, src), api.Pos(src)}
	}
	p := api.Process{
		Func: capture,
		Args: []any{"fixed"},
		StateInputs: func(any) ([]api.Input, error) {
			return named("state"), nil
		},
		ConfigInputs: func(any) ([]api.Input, error) {
			return named("config"), nil
		},
		ParametersInputs: func(any) ([]api.Input, error) {
			return named("parameters"), nil
		},
		ExternalInputs: func(any, int) ([]api.Input, error) {
			return named("external"), nil
		},
		AdditionalInputs: func() ([]api.Input, error) {
			return named("additional"), nil
		},
	}
	_, err := New().Run([]api.Process{p}, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, "additional", got.Named["v"])
	assert.Equal(t, []any{"fixed", "external", "config", "parameters", "state", "additional"}, got.Positional)
	for _, src := range []string{"external", "config", "parameters", "state", "additional"} {
		assert.Equal(t, src, got.Named[src])
	}
}

func TestRun_PrecedenceBetweenTwoSources(t *testing.T) {
	var got any
	p := api.Process{
		Func: func(args api.Args) (any, error) {
			got = args.Named["x"]
			return nil, nil
		},
		ConfigInputs: func(any) ([]api.Input, error) { return []api.Input{api.I("config", "x")}, nil },
		StateInputs:  func(any) ([]api.Input, error) { return []api.Input{api.I("state", "x")}, nil },
	}
	_, err := New().Run([]api.Process{p}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "state", got)
}

func TestRun_GateClosedSkipsProcess(t *testing.T) {
	called := false
	p := api.Process{
		Gate: api.When(false),
		Func: func(api.Args) (any, error) {
			called = true
			return 1, nil
		},
		StateOutputs: func(result any) ([]api.Output, error) {
			return []api.Output{api.O(result, "a")}, nil
		},
	}
	in := map[string]any{"a": 0}
	out, err := New().Run([]api.Process{p}, in)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, in, out)
}

func TestRun_DynamicGateStopsAt200(t *testing.T) {
	p := api.Process{
		Gate: func(state any) bool {
			v, err := tree.Get(state, "a")
			if err != nil {
				return false
			}
			f, _ := tree.AsFloat(v)
			return f < 200
		},
		Func: add,
		StateInputs: func(state any) ([]api.Input, error) {
			return api.Bind(state, api.Decl{From: "a", As: "x"})
		},
		AdditionalInputs: func() ([]api.Input, error) {
			return []api.Input{api.I(30, "y")}, nil
		},
		StateOutputs: func(result any) ([]api.Output, error) {
			return []api.Output{api.O(result, "a")}, nil
		},
	}
	run := New().Initialize([]api.Process{p})
	var state any = map[string]any{"a": 0.0}
	for range 20 {
		var err error
		state, err = run(state)
		require.NoError(t, err)
	}
	assert.Equal(t, 210.0, state.(map[string]any)["a"])
}

func TestRun_ImmutableModePreservesSnapshots(t *testing.T) {
	mutator := api.Process{
		Func: func(args api.Args) (any, error) {
			// Step code that mutates what it was handed.
			m := args.Named["nested"].(map[string]any)
			m["v"] = "mutated"
			return "done", nil
		},
		StateInputs: func(state any) ([]api.Input, error) {
			return api.Bind(state, api.Decl{From: "nested", As: "nested"})
		},
		StateOutputs: func(result any) ([]api.Output, error) {
			return []api.Output{api.O(result, "status")}, nil
		},
	}
	initial := map[string]any{"nested": map[string]any{"v": "orig"}, "status": ""}

	out, err := New(WithImmutable(true)).Run([]api.Process{mutator}, initial)
	require.NoError(t, err)
	assert.Equal(t, "orig", initial["nested"].(map[string]any)["v"])
	assert.Equal(t, "", initial["status"])
	assert.Equal(t, "done", out.(map[string]any)["status"])

	// Mutating mode aliases into the caller's tree.
	_, err = New().Run([]api.Process{mutator}, initial)
	require.NoError(t, err)
	assert.Equal(t, "mutated", initial["nested"].(map[string]any)["v"])
	assert.Equal(t, "", initial["status"], "commits still go through the persistent writer")
}

func TestRun_ImmutableModeGateClosedReturnsCopy(t *testing.T) {
	initial := map[string]any{"a": map[string]any{"b": 1}}
	out, err := New(WithImmutable(true)).Run([]api.Process{{Func: add, Gate: api.When(false)}}, initial)
	require.NoError(t, err)
	assert.True(t, tree.Equal(initial, out))
	assert.False(t, tree.Same(initial, out))
}

func TestRun_OutputsThreadThroughWrites(t *testing.T) {
	p := api.Process{
		Func: func(api.Args) (any, error) {
			return map[string]any{"hh": 12, "dd": 3}, nil
		},
		StateOutputs: func(result any) ([]api.Output, error) {
			m := result.(map[string]any)
			return []api.Output{
				api.O(m["hh"], "temporal.hh"),
				api.O(m["dd"], "temporal.dd"),
				api.O("first", "history.+"),
				api.O("second", "history.+"),
			}, nil
		},
	}
	initial := tree.NewRecord(
		tree.F("temporal", tree.NewRecord(tree.F("hh", 0), tree.F("dd", 0))),
		tree.F("history", []any{}),
	)
	out, err := New().Run([]api.Process{p}, initial)
	require.NoError(t, err)

	want := tree.NewRecord(
		tree.F("temporal", tree.NewRecord(tree.F("hh", 12), tree.F("dd", 3))),
		tree.F("history", []any{"first", "second"}),
	)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_FormatOutputResolvesAgainstResult(t *testing.T) {
	p := api.Process{
		FormatOutput: true,
		Func: func(api.Args) (any, error) {
			return map[string]any{"out": "zzz", "list": []any{1, 2}}, nil
		},
		StateOutputs: func(any) ([]api.Output, error) {
			return []api.Output{
				{From: "out", To: "nested.na"},
				{From: "list.1", To: "b"},
				{From: api.ResultPath, To: "all"},
			}, nil
		},
	}
	initial := map[string]any{"nested": map[string]any{"na": 7}}
	out, err := New().Run([]api.Process{p}, initial)
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, "zzz", m["nested"].(map[string]any)["na"])
	assert.Equal(t, 2, m["b"])
	assert.Equal(t, map[string]any{"out": "zzz", "list": []any{1, 2}}, m["all"])
	assert.Equal(t, 7, initial["nested"].(map[string]any)["na"])
}

func TestRun_FormatOutputLeafResult(t *testing.T) {
	p := api.Process{
		FormatOutput: true,
		Func:         func(api.Args) (any, error) { return 5, nil },
		StateOutputs: func(any) ([]api.Output, error) {
			return []api.Output{{From: "anything", To: "a"}}, nil
		},
	}
	out, err := New().Run([]api.Process{p}, map[string]any{"a": 0})
	require.NoError(t, err)
	assert.Equal(t, 5, out.(map[string]any)["a"])
}

func TestRun_TimeProcess(t *testing.T) {
	tick := api.Process{
		Type:     api.Time,
		TimeFunc: func(tm *clock.Manager) error { tm.AdvanceRow(1); return nil },
	}
	r := New(WithRowUnit(clock.Minute))
	state := map[string]any{"a": 1}
	out, err := r.Run([]api.Process{tick, tick, tick}, state)
	require.NoError(t, err)
	assert.Equal(t, state, out)
	assert.Equal(t, 3, r.Clock().RowIndex)
	assert.Equal(t, 3, r.Clock().Minute)
}

func TestRun_LogProcessFillsRows(t *testing.T) {
	r := New()
	r.Clock().AdvanceRow(2)
	logp := api.Process{
		Type: api.Log,
		StateInputs: func(state any) ([]api.Input, error) {
			return api.Bind(state, api.Decl{From: "a", As: "a"})
		},
		AdditionalInputs: func() ([]api.Input, error) {
			return []api.Input{api.I("x", "tag")}, nil
		},
	}
	_, err := r.Run([]api.Process{logp}, map[string]any{"a": 4})
	require.NoError(t, err)

	logs := r.Logs()
	require.Len(t, logs, 3)
	assert.Empty(t, logs[0])
	assert.Empty(t, logs[1])
	assert.Equal(t, map[string]any{"a": 4, "tag": "x"}, logs[2])
	assert.Equal(t, []int{2}, r.LogTable().Populated())
}

func TestRun_LogMergesAcrossRowsAndSteps(t *testing.T) {
	r := New()
	logA := api.Process{Type: api.Log, AdditionalInputs: func() ([]api.Input, error) {
		return []api.Input{api.I(1, "a")}, nil
	}}
	logB := api.Process{Type: api.Log, AdditionalInputs: func() ([]api.Input, error) {
		return []api.Input{api.I(2, "b"), api.I(3, "a")}, nil
	}}
	tick := api.Process{Type: api.Time, TimeFunc: func(tm *clock.Manager) error { tm.AdvanceRow(1); return nil }}

	_, err := r.Run([]api.Process{logA, logB, tick, logA}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"a": 3, "b": 2}, {"a": 1}}, r.Logs())
}

func TestRun_DebugTimings(t *testing.T) {
	p := addProcess()
	p.Comment = "accumulate"
	r := New(WithDebug(true), WithConfig(map[string]any{"foo": 1}))
	_, err := r.Run([]api.Process{p, p}, map[string]any{"a": 0})
	require.NoError(t, err)

	timings := r.Timings()
	require.Len(t, timings, 2)
	for _, tm := range timings {
		assert.Equal(t, "accumulate", tm.ID)
		assert.GreaterOrEqual(t, tm.Total, tm.Input+tm.Call+tm.Output)
	}
	assert.Contains(t, Totals(timings), "accumulate")

	r.ResetLogs()
	assert.Empty(t, r.Timings())

	_, err = New(WithConfig(map[string]any{"foo": 1})).Run([]api.Process{p}, map[string]any{"a": 0})
	require.NoError(t, err)
}

func TestReset(t *testing.T) {
	r := New(WithDebug(true), WithRowUnit(clock.Day))
	r.Clock().AdvanceRow(4)
	r.LogTable().Merge(4, map[string]any{"x": 1})
	r.Reset()
	assert.Zero(t, r.Clock().RowIndex)
	assert.Equal(t, clock.Day, r.Clock().RowUnit)
	assert.Empty(t, r.Logs())
	assert.Empty(t, r.LogTable().Populated())
	assert.Nil(t, r.State())
}

func TestRun_StepErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	p := api.Process{
		Comment: "Demo Process",
		Func:    func(api.Args) (any, error) { return nil, boom },
		Args:    []any{1},
		AdditionalInputs: func() ([]api.Input, error) {
			return []api.Input{api.I(4, "y")}, nil
		},
	}
	r := New(WithConfig(map[string]any{"foo": 3}))
	before, err := r.Run([]api.Process{addProcess()}, map[string]any{"a": 0})
	require.NoError(t, err)

	out, err := r.Run([]api.Process{p}, map[string]any{"a": 0})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, before, r.State(), "failed run must not replace the session state")

	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Demo Process", pe.Process)
	assert.Equal(t, []any{1}, pe.Args)
	assert.Equal(t, map[string]any{"y": 4}, pe.Named)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrStepExecution)
	assert.Contains(t, err.Error(), `failed to run "Demo Process"`)
	assert.Contains(t, err.Error(), `"kwargs":{"y":4}`)
}

func TestRun_ErrorIDFallsBackToFuncName(t *testing.T) {
	p := api.Process{Func: add}
	_, err := New().Run([]api.Process{p}, map[string]any{})
	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "runner.add", pe.Process)
}

func TestRun_PanicIsRecovered(t *testing.T) {
	p := api.Process{Func: func(api.Args) (any, error) {
		var m map[string]any
		m["x"] = 1
		return nil, nil
	}}
	_, err := New().Run([]api.Process{p}, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepExecution)
	assert.Contains(t, err.Error(), "panic")
}

func TestRun_InputPathNotFound(t *testing.T) {
	p := addProcess()
	_, err := New(WithConfig(map[string]any{})).Run([]api.Process{p}, map[string]any{"a": 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, tree.ErrPathNotFound)
	assert.ErrorIs(t, err, ErrStepExecution)
}

func TestRun_OutputPathNotFoundAbortsFold(t *testing.T) {
	calls := 0
	bad := api.Process{
		Func: func(api.Args) (any, error) { calls++; return 1, nil },
		StateOutputs: func(result any) ([]api.Output, error) {
			return []api.Output{api.O(result, "missing.deep")}, nil
		},
	}
	_, err := New().Run([]api.Process{bad, bad}, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, tree.ErrPathNotFound)
	assert.Equal(t, 1, calls)

	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Index)
}

func TestRun_RequiredInputInDebugMode(t *testing.T) {
	p := api.Process{
		Func: func(api.Args) (any, error) { return nil, nil },
		StateInputs: func(state any) ([]api.Input, error) {
			return []api.Input{{Value: nil, As: "x", Required: true, From: "a"}}, nil
		},
	}
	_, err := New().Run([]api.Process{p}, map[string]any{})
	require.NoError(t, err, "required is only asserted in debug mode")

	_, err = New(WithDebug(true)).Run([]api.Process{p}, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequiredInput)
	assert.NotErrorIs(t, err, ErrStepExecution)
}

func TestRun_TimeProcessWithoutFunc(t *testing.T) {
	_, err := New().Run([]api.Process{{Type: api.Time, Comment: "tick"}}, nil)
	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tick", pe.Process)
}
