package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/pipeline"
	"github.com/agentic-research/proflow/internal/steps"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [definition]",
	Short: "Compile a pipeline definition and list its processes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := hostPath(args[0])
		if err != nil {
			return err
		}
		spec, err := pipeline.Load(hostFS(), path)
		if err != nil {
			return err
		}
		if _, err := pipeline.Compile(spec, steps.Builtins()); err != nil {
			return err
		}
		return describe(cmd, spec)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func describe(cmd *cobra.Command, spec *api.PipelineSpec) error {
	rowUnit := spec.RowUnit
	if rowUnit == "" {
		rowUnit = "hour"
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "version %s, row unit %s, debug %v, immutable %v\n\n",
		spec.Version, rowUnit, spec.Debug, spec.Immutable)
	_, _ = fmt.Fprintln(w, "#\tNAME\tTYPE\tSTEP\tGROUP\tGATE\tINPUTS\tOUTPUTS")
	for i, ps := range spec.Processes {
		typ := ps.Type
		if typ == "" {
			typ = "standard"
		}
		gate := "-"
		if g := ps.Gate; g != nil {
			gate = strings.TrimSpace(fmt.Sprintf("%s %s %v", g.Path, g.Op, valueOrEmpty(g.Value)))
		}
		ins := make([]string, len(ps.Inputs))
		for j, in := range ps.Inputs {
			name := in.As
			if name == "" {
				name = "_"
			}
			if in.Source == api.SourceAdditional {
				ins[j] = fmt.Sprintf("%s=%v", name, in.Value)
				continue
			}
			ins[j] = fmt.Sprintf("%s=%s:%s", name, in.Source, in.From)
		}
		outs := make([]string, len(ps.Outputs))
		for j, o := range ps.Outputs {
			from := o.From
			if from == "" {
				from = api.ResultPath
			}
			outs[j] = from + "->" + o.To
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, ps.Name, typ, dash(ps.Step), dash(ps.Group), gate,
			dash(strings.Join(ins, " ")), dash(strings.Join(outs, " ")))
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
