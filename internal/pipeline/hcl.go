package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/agentic-research/proflow/api"
)

// HCL layout:
//
//	row_unit = "hour"
//	process "accumulate" {
//	  step = "add"
//	  input { source = "state"  from = "a"   as = "x" }
//	  input { source = "config" from = "foo" as = "y" }
//	  output { to = "a" }
//	}
type hclFile struct {
	Version   string       `hcl:"version,optional"`
	RowUnit   string       `hcl:"row_unit,optional"`
	Debug     bool         `hcl:"debug,optional"`
	Immutable bool         `hcl:"immutable,optional"`
	Processes []hclProcess `hcl:"process,block"`
}

type hclProcess struct {
	Name         string      `hcl:"name,label"`
	Step         string      `hcl:"step,optional"`
	Type         string      `hcl:"type,optional"`
	Group        string      `hcl:"group,optional"`
	Args         cty.Value   `hcl:"args,optional"`
	FormatOutput bool        `hcl:"format_output,optional"`
	Unit         string      `hcl:"unit,optional"`
	By           int         `hcl:"by,optional"`
	Gate         *hclGate    `hcl:"gate,block"`
	Inputs       []hclInput  `hcl:"input,block"`
	Outputs      []hclOutput `hcl:"output,block"`
}

type hclGate struct {
	Path  string    `hcl:"path"`
	Op    string    `hcl:"op,optional"`
	Value cty.Value `hcl:"value,optional"`
}

type hclInput struct {
	Source   string    `hcl:"source"`
	From     string    `hcl:"from,optional"`
	As       string    `hcl:"as,optional"`
	Required bool      `hcl:"required,optional"`
	Value    cty.Value `hcl:"value,optional"`
}

type hclOutput struct {
	From string `hcl:"from,optional"`
	To   string `hcl:"to"`
}

func parseHCL(data []byte, filename string) (*api.PipelineSpec, error) {
	var f hclFile
	if err := hclsimple.Decode(filename, data, nil, &f); err != nil {
		return nil, fmt.Errorf("parse definition hcl: %w", err)
	}
	spec := &api.PipelineSpec{
		Version:   f.Version,
		RowUnit:   f.RowUnit,
		Debug:     f.Debug,
		Immutable: f.Immutable,
	}
	for _, hp := range f.Processes {
		ps := api.ProcessSpec{
			Name:         hp.Name,
			Step:         hp.Step,
			Type:         hp.Type,
			Group:        hp.Group,
			FormatOutput: hp.FormatOutput,
			Unit:         hp.Unit,
			By:           hp.By,
		}
		args, err := ctyToGo(hp.Args)
		if err != nil {
			return nil, fmt.Errorf("process %q args: %w", hp.Name, err)
		}
		if args != nil {
			list, ok := args.([]any)
			if !ok {
				return nil, fmt.Errorf("process %q args: want a list, got %T", hp.Name, args)
			}
			ps.Args = list
		}
		if hp.Gate != nil {
			v, err := ctyToGo(hp.Gate.Value)
			if err != nil {
				return nil, fmt.Errorf("process %q gate: %w", hp.Name, err)
			}
			ps.Gate = &api.GateSpec{Path: hp.Gate.Path, Op: hp.Gate.Op, Value: v}
		}
		for _, in := range hp.Inputs {
			v, err := ctyToGo(in.Value)
			if err != nil {
				return nil, fmt.Errorf("process %q input %q: %w", hp.Name, in.As, err)
			}
			ps.Inputs = append(ps.Inputs, api.InputSpec{
				Source:   in.Source,
				From:     in.From,
				As:       in.As,
				Required: in.Required,
				Value:    v,
			})
		}
		for _, out := range hp.Outputs {
			ps.Outputs = append(ps.Outputs, api.OutputSpec{From: out.From, To: out.To})
		}
		spec.Processes = append(spec.Processes, ps)
	}
	return spec, nil
}

// ctyToGo converts an HCL literal to the plain value shapes used by state
// trees. Null and absent values become nil.
func ctyToGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	raw, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
