package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/proflow/internal/export"
	"github.com/agentic-research/proflow/internal/runner"
)

var (
	runSources sources
	runTimes   int
	exportPath string
	outPath    string
)

func init() {
	addSourceFlags(runCmd, &runSources)
	runCmd.Flags().IntVarP(&runTimes, "times", "n", 1, "Number of passes; each pass continues from the previous state")
	runCmd.Flags().StringVar(&exportPath, "export", "", "Write a SQLite report of the run")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the final state as JSON to this file")
	rootCmd.AddCommand(runCmd)
}

func addSourceFlags(cmd *cobra.Command, src *sources) {
	cmd.Flags().StringVarP(&src.State, "state", "s", "", "Initial state document (JSON or YAML)")
	cmd.Flags().StringVarP(&src.Config, "config", "c", "", "Config document")
	cmd.Flags().StringVarP(&src.Parameters, "parameters", "p", "", "Parameters document")
	cmd.Flags().StringVarP(&src.External, "external", "e", "", "External data document")
	cmd.Flags().StringVar(&src.ExternalSelect, "external-select", "", "JSONPath selecting external rows")
	cmd.Flags().StringVar(&src.ExternalDB, "external-db", "", "SQLite database whose results table supplies external rows")
	cmd.Flags().BoolVar(&src.Debug, "debug", false, "Assert required inputs and record timings")
}

var runCmd = &cobra.Command{
	Use:   "run [definition]",
	Short: "Run a pipeline definition and print the final state and log table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runSources.Definition = args[0]
		w := cmd.OutOrStdout()
		fsys := hostFS()
		s, err := openSession(fsys, runSources)
		if err != nil {
			return err
		}
		state, err := s.run(runTimes)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		if outPath != "" {
			abs, err := hostPath(outPath)
			if err != nil {
				return err
			}
			if err := export.WriteFileAtomic(fsys, abs, append(out, '\n')); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "State written to %s\n", outPath)
		} else {
			_, _ = fmt.Fprintln(w, string(out))
		}

		printLogs(cmd, s.runner)
		printTimings(cmd, s.runner)

		if exportPath != "" {
			e, err := export.NewSQLiteExporter(exportPath)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			id, err := e.WriteRun(strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])), s.runner)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Run %s exported to %s\n", id, exportPath)
		}
		return nil
	},
}

func printLogs(cmd *cobra.Command, r *runner.Runner) {
	rows := r.Logs()
	if len(rows) == 0 {
		return
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Log table (%d rows, %d populated):\n", len(rows), len(r.LogTable().Populated()))
	for _, i := range r.LogTable().Populated() {
		b, err := json.Marshal(rows[i])
		if err != nil {
			b = []byte(fmt.Sprint(rows[i]))
		}
		_, _ = fmt.Fprintf(w, "  %4d %s\n", i, b)
	}
}

func printTimings(cmd *cobra.Command, r *runner.Runner) {
	totals := runner.Totals(r.Timings())
	if len(totals) == 0 {
		return
	}
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return totals[ids[i]] > totals[ids[j]] })

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, "Timings:")
	for _, id := range ids {
		_, _ = fmt.Fprintf(w, "  %-30s %v\n", id, totals[id])
	}
}
