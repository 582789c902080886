package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thrash-lab/viability-test/internal/bulk"
	"github.com/thrash-lab/viability-test/internal/viability"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Estimate viability for every row of a tab-separated table",
	Long: `Estimate viability for every row of a tab-separated table with the
columns wells, inoculum, rel_abund and num_observed. Other columns are copied
to the output, followed by the pure-well interval at full viability, the
viability range, within_range and deviance.

Examples:
  viability bulk -i samples.tsv -o results.tsv
  viability bulk -i samples.tsv --format json`,
	RunE: runBulk,
}

// Flags
var (
	bulkInput  string
	bulkOutput string
	bulkFormat string
)

func init() {
	rootCmd.AddCommand(bulkCmd)

	bulkCmd.Flags().StringVarP(&bulkInput, "input", "i", "", "Input TSV file (- for stdin)")
	bulkCmd.Flags().StringVarP(&bulkOutput, "output", "o", "", "Output file (default: stdout)")
	bulkCmd.Flags().StringVarP(&bulkFormat, "format", "f", bulk.FormatTSV, "Output format: tsv, json")
	_ = bulkCmd.MarkFlagRequired("input")
}

func runBulk(cmd *cobra.Command, args []string) error {
	if bulkFormat != bulk.FormatTSV && bulkFormat != bulk.FormatJSON {
		return fmt.Errorf("unsupported format: %s (use tsv or json)", bulkFormat)
	}

	var in io.Reader = cmd.InOrStdin()
	if bulkInput != "-" {
		f, err := os.Open(bulkInput)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	table, err := bulk.Read(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", bulkInput, err)
	}

	results, err := bulk.Process(cmd.Context(), table, app.Estimator, func(r bulk.Result) {
		app.Logger.Info("row estimated",
			"line", r.Line, "run_id", r.RunID, "outcome", viability.Outcome(r.Viability), "within_range", r.WithinRange)
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if bulkOutput != "" {
		f, err := os.Create(bulkOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := bulk.Write(out, table, results, bulkFormat); err != nil {
		return err
	}

	if bulkOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Estimated %d rows to %s\n", len(results), bulkOutput)
	}
	return nil
}
