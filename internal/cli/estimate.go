package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/plot"
	"github.com/thrash-lab/viability-test/internal/report"
)

var estimateCmd = &cobra.Command{
	Use:     "estimate_viability",
	Aliases: []string{"estimate"},
	Short:   "Estimate viability from an observed number of pure wells",
	Long: `Estimate the range of viability that explains an observed number of
pure wells for a taxon of interest.

Examples:
  viability estimate_viability -w 96 -i 2 -o 12 -r 0.05
  viability estimate -w 384 -i 1.5 -o 40 --chart plots/sweep.png`,
	RunE: runEstimate,
}

// Flags
var (
	estimateWells    int
	estimateInoculum float64
	estimateObserved int
	estimateRelAbund float64
	estimateChart    string
)

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().IntVarP(&estimateWells, "wells", "w", 0, "Number of wells inoculated")
	estimateCmd.Flags().Float64VarP(&estimateInoculum, "inoculum", "i", 0, "Average number of cells per well")
	estimateCmd.Flags().IntVarP(&estimateObserved, "num_observed", "o", 0, "Observed number of pure wells for the taxon")
	estimateCmd.Flags().Float64VarP(&estimateRelAbund, "rel_abund", "r", 1, "Relative abundance of the taxon (0-1]")
	estimateCmd.Flags().StringVar(&estimateChart, "chart", "", "Write a PNG chart of the coarse sweep to this path")
	_ = estimateCmd.MarkFlagRequired("wells")
	_ = estimateCmd.MarkFlagRequired("inoculum")
	_ = estimateCmd.MarkFlagRequired("num_observed")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	q := domain.Query{
		Inoculum:     estimateInoculum,
		RelAbundance: estimateRelAbund,
		Wells:        estimateWells,
		Observed:     estimateObserved,
	}

	est, err := app.Estimator.Estimate(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("failed to estimate viability: %w", err)
	}
	if err := report.Estimate(cmd.OutOrStdout(), est); err != nil {
		return err
	}

	if estimateChart == "" {
		return nil
	}
	if len(est.Stages) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No sweep to chart: the search was skipped.")
		return nil
	}
	if err := plot.SweepChart(est.Stages[0], q.Observed, estimateChart); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Chart written to %s\n", estimateChart)
	return nil
}
