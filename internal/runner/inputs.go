package runner

import (
	"fmt"

	"github.com/agentic-research/proflow/api"
)

// source is one input function bound to its tree, in precedence order.
type source struct {
	name    string
	resolve func() ([]api.Input, error)
}

// sources lists the process's input functions from lowest to highest
// precedence: external, config, parameters, state, additional.
func (r *Runner) sources(p *api.Process, state any) []source {
	row := r.clock.RowIndex
	var out []source
	if p.ExternalInputs != nil {
		out = append(out, source{api.SourceExternal, func() ([]api.Input, error) { return p.ExternalInputs(r.external, row) }})
	}
	if p.ConfigInputs != nil {
		out = append(out, source{api.SourceConfig, func() ([]api.Input, error) { return p.ConfigInputs(r.config) }})
	}
	if p.ParametersInputs != nil {
		out = append(out, source{api.SourceParameters, func() ([]api.Input, error) { return p.ParametersInputs(r.parameters) }})
	}
	if p.StateInputs != nil {
		out = append(out, source{api.SourceState, func() ([]api.Input, error) { return p.StateInputs(state) }})
	}
	if p.AdditionalInputs != nil {
		out = append(out, source{api.SourceAdditional, p.AdditionalInputs})
	}
	return out
}

// resolveInputs builds the call signature. Named bindings from a later
// source replace earlier ones with the same name; positional bindings keep
// source order after the process's fixed Args.
func (r *Runner) resolveInputs(p *api.Process, state any) (api.Args, error) {
	args := api.Args{
		Positional: append([]any(nil), p.Args...),
		Named:      make(map[string]any),
	}
	for _, src := range r.sources(p, state) {
		var inputs []api.Input
		err := guard(func() error {
			var err error
			inputs, err = src.resolve()
			return err
		})
		if err != nil {
			return args, stepFailure(src.name+" inputs", err)
		}
		for _, in := range inputs {
			if r.debug && in.Required && in.Value == nil {
				name := in.As
				if name == "" {
					name = "<positional>"
				}
				return args, fmt.Errorf("%w: %s input %s (from %q)", ErrRequiredInput, src.name, name, in.From)
			}
			if in.As == "" {
				args.Positional = append(args.Positional, in.Value)
				continue
			}
			args.Named[in.As] = in.Value
		}
	}
	return args, nil
}
