package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/report"
)

var predictCmd = &cobra.Command{
	Use:     "predict_wells",
	Aliases: []string{"predict"},
	Short:   "Predict the outcome of a DTE experiment",
	Long: `Simulate a DTE experiment and report the expected number of positive,
single-cell, taxon-positive and pure wells with their 95% confidence intervals.

Examples:
  viability predict_wells -w 96 -i 2 -r 0.05 -v 0.5
  viability predict_wells -w 96 -i 2 --format tsv > prediction.tsv`,
	RunE: runPredict,
}

// Flags
var (
	predictWells     int
	predictInoculum  float64
	predictRelAbund  float64
	predictViability float64
	predictFormat    string
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().IntVarP(&predictWells, "wells", "w", 0, "Number of wells inoculated")
	predictCmd.Flags().Float64VarP(&predictInoculum, "inoculum", "i", 0, "Average number of cells per well")
	predictCmd.Flags().Float64VarP(&predictRelAbund, "rel_abund", "r", 1, "Relative abundance of the taxon (0-1]")
	predictCmd.Flags().Float64VarP(&predictViability, "viability", "v", 1, "Viability of the taxon [0-1]")
	predictCmd.Flags().StringVarP(&predictFormat, "format", "f", "text", "Output format: text, tsv")
	_ = predictCmd.MarkFlagRequired("wells")
	_ = predictCmd.MarkFlagRequired("inoculum")
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictFormat != "text" && predictFormat != "tsv" {
		return fmt.Errorf("unsupported format: %s (use text or tsv)", predictFormat)
	}
	p := domain.Params{
		Inoculum:     predictInoculum,
		RelAbundance: predictRelAbund,
		Viability:    predictViability,
		Wells:        predictWells,
	}

	rec, err := app.Estimator.Predict(cmd.Context(), p)
	if err != nil {
		return fmt.Errorf("failed to predict wells: %w", err)
	}
	if predictFormat == "tsv" {
		return report.PredictionTSV(cmd.OutOrStdout(), rec)
	}
	return report.Prediction(cmd.OutOrStdout(), rec, app.Estimator.Workers())
}
