package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/proflow/internal/ingest"
)

var queryCmd = &cobra.Command{
	Use:   "query [document] [path]",
	Short: "Resolve a dot path (a.b.0, matrix._.1) or a JSONPath ($.a[*]) against a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDoc(hostFS(), args[0])
		if err != nil {
			return err
		}
		v, err := ingest.Query(doc, args[1])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
