package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/clock"
	"github.com/agentic-research/proflow/internal/runner"
	"github.com/agentic-research/proflow/internal/steps"
	"github.com/agentic-research/proflow/internal/tree"
)

// Options returns the runner options a definition asks for.
func Options(spec *api.PipelineSpec) ([]runner.Option, error) {
	unit, err := clock.ParseUnit(spec.RowUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return []runner.Option{
		runner.WithRowUnit(unit),
		runner.WithDebug(spec.Debug),
		runner.WithImmutable(spec.Immutable),
	}, nil
}

// Compile turns every process declaration into a runnable process, looking
// step names up in reg.
func Compile(spec *api.PipelineSpec, reg steps.Registry) ([]api.Process, error) {
	out := make([]api.Process, 0, len(spec.Processes))
	for i, ps := range spec.Processes {
		p, err := compileProcess(ps, reg)
		if err != nil {
			name := ps.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("%w: process %s: %w", ErrInvalidDefinition, name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseType(s string) (api.ProcessType, error) {
	switch strings.ToLower(s) {
	case "", "standard":
		return api.Standard, nil
	case "time":
		return api.Time, nil
	case "log":
		return api.Log, nil
	default:
		return 0, fmt.Errorf("unknown process type %q", s)
	}
}

func compileProcess(ps api.ProcessSpec, reg steps.Registry) (api.Process, error) {
	typ, err := parseType(ps.Type)
	if err != nil {
		return api.Process{}, err
	}
	p := api.Process{
		Type:         typ,
		Comment:      ps.Name,
		Group:        ps.Group,
		Args:         ps.Args,
		FormatOutput: ps.FormatOutput,
	}
	if ps.Gate != nil {
		if p.Gate, err = compileGate(*ps.Gate); err != nil {
			return api.Process{}, err
		}
	}

	switch typ {
	case api.Time:
		p.TimeFunc, err = compileTime(ps)
		return p, err
	case api.Standard:
		if ps.Step == "" {
			return api.Process{}, fmt.Errorf("standard process needs a step")
		}
		if p.Func, err = reg.Lookup(ps.Step); err != nil {
			return api.Process{}, err
		}
		p.StateOutputs = compileOutputs(ps.Outputs, ps.FormatOutput)
	}
	if err := bindInputs(&p, ps.Inputs); err != nil {
		return api.Process{}, err
	}
	return p, nil
}

func compileTime(ps api.ProcessSpec) (api.TimeFunc, error) {
	by := ps.By
	if by == 0 {
		by = 1
	}
	if ps.Unit == "" {
		return func(tm *clock.Manager) error { tm.AdvanceRow(by); return nil }, nil
	}
	u, err := clock.ParseUnit(ps.Unit)
	if err != nil {
		return nil, err
	}
	return func(tm *clock.Manager) error { tm.Advance(u, by); return nil }, nil
}

func bindInputs(p *api.Process, specs []api.InputSpec) error {
	decls := make(map[string][]api.Decl)
	var additional []api.Input
	for _, in := range specs {
		switch in.Source {
		case api.SourceState, api.SourceConfig, api.SourceParameters, api.SourceExternal:
			if in.From == "" {
				return fmt.Errorf("%s input %q needs a from path", in.Source, in.As)
			}
			if _, err := tree.ParsePath(in.From); err != nil && !isTemplate(in.From) {
				return err
			}
			decls[in.Source] = append(decls[in.Source], api.Decl{From: in.From, As: in.As, Required: in.Required})
		case api.SourceAdditional:
			additional = append(additional, api.Input{Value: in.Value, As: in.As, Required: in.Required})
		default:
			return fmt.Errorf("unknown input source %q", in.Source)
		}
	}

	if d := decls[api.SourceState]; d != nil {
		p.StateInputs = func(state any) ([]api.Input, error) { return api.Bind(state, d...) }
	}
	if d := decls[api.SourceConfig]; d != nil {
		p.ConfigInputs = func(config any) ([]api.Input, error) { return api.Bind(config, d...) }
	}
	if d := decls[api.SourceParameters]; d != nil {
		p.ParametersInputs = func(params any) ([]api.Input, error) { return api.Bind(params, d...) }
	}
	if d := decls[api.SourceExternal]; d != nil {
		p.ExternalInputs = func(external any, row int) ([]api.Input, error) {
			rendered := make([]api.Decl, len(d))
			for i, decl := range d {
				from, err := renderPath(decl.From, row)
				if err != nil {
					return nil, err
				}
				decl.From = from
				rendered[i] = decl
			}
			return api.Bind(external, rendered...)
		}
	}
	if additional != nil {
		p.AdditionalInputs = func() ([]api.Input, error) { return additional, nil }
	}
	return nil
}

func isTemplate(s string) bool { return strings.Contains(s, "{{") }

// renderPath expands {{.Row}} in an external path.
func renderPath(path string, row int) (string, error) {
	if !isTemplate(path) {
		return path, nil
	}
	t, err := template.New("").Option("missingkey=error").Parse(path)
	if err != nil {
		return "", fmt.Errorf("external path %q: %w", path, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]any{"Row": row}); err != nil {
		return "", fmt.Errorf("external path %q: %w", path, err)
	}
	return buf.String(), nil
}

// compileOutputs builds the output map. With formatOutput the runner
// resolves From at commit time; otherwise the values are picked here.
func compileOutputs(specs []api.OutputSpec, formatOutput bool) api.OutputMap {
	if len(specs) == 0 {
		return nil
	}
	if formatOutput {
		outs := make([]api.Output, len(specs))
		for i, o := range specs {
			outs[i] = api.Output{From: o.From, To: o.To}
		}
		return func(any) ([]api.Output, error) { return outs, nil }
	}
	return func(result any) ([]api.Output, error) {
		outs := make([]api.Output, 0, len(specs))
		for _, o := range specs {
			v, err := runner.ResolveResult(result, o.From)
			if err != nil {
				return nil, fmt.Errorf("output %s: %w", o.To, err)
			}
			outs = append(outs, api.Output{Value: v, From: o.From, To: o.To})
		}
		return outs, nil
	}
}
