package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/plot"
	"github.com/thrash-lab/viability-test/internal/viability"
)

var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Animate the effect of inoculum and relative abundance on pure wells",
	Long: `Predict the percentage of pure wells over a grid of inoculum and relative
abundance at a fixed viability, and write a rotating 3D animation of the
surface as an MJPEG AVI. Grid axes run from min up to, but not including, max.

Examples:
  viability surface -w 96 -v 0.5
  viability surface --inoculum-min 0.5 --inoculum-max 5 --inoculum-step 0.5 --output plots/half.avi`,
	RunE: runSurface,
}

// Flags
var (
	surfaceWells     int
	surfaceViability float64
	surfaceInocMin   float64
	surfaceInocMax   float64
	surfaceInocStep  float64
	surfaceAbundMin  float64
	surfaceAbundMax  float64
	surfaceAbundStep float64
	surfaceFrames    int
	surfaceFPS       int
	surfaceElevation float64
	surfaceOutput    string
)

func init() {
	rootCmd.AddCommand(surfaceCmd)

	surfaceCmd.Flags().IntVarP(&surfaceWells, "wells", "w", 96, "Number of wells inoculated")
	surfaceCmd.Flags().Float64VarP(&surfaceViability, "viability", "v", 1, "Viability of the taxon [0-1]")
	surfaceCmd.Flags().Float64Var(&surfaceInocMin, "inoculum-min", 0.5, "Smallest inoculum")
	surfaceCmd.Flags().Float64Var(&surfaceInocMax, "inoculum-max", 5, "Inoculum upper limit (exclusive)")
	surfaceCmd.Flags().Float64Var(&surfaceInocStep, "inoculum-step", 0.5, "Inoculum step")
	surfaceCmd.Flags().Float64Var(&surfaceAbundMin, "rel_abund-min", 0.05, "Smallest relative abundance")
	surfaceCmd.Flags().Float64Var(&surfaceAbundMax, "rel_abund-max", 1, "Relative abundance upper limit (exclusive)")
	surfaceCmd.Flags().Float64Var(&surfaceAbundStep, "rel_abund-step", 0.05, "Relative abundance step")
	surfaceCmd.Flags().IntVar(&surfaceFrames, "frames", 360, "Frames in one full turn")
	surfaceCmd.Flags().IntVar(&surfaceFPS, "fps", 30, "Frames per second")
	surfaceCmd.Flags().Float64Var(&surfaceElevation, "elevation", plot.DefaultSurfaceOptions().Elevation, "Camera elevation in degrees (0 views edge-on)")
	surfaceCmd.Flags().StringVar(&surfaceOutput, "output", filepath.Join("plots", "surface.avi"), "Output AVI file")
}

func runSurface(cmd *cobra.Command, args []string) error {
	inocula := viability.Candidates(surfaceInocMin, surfaceInocMax, surfaceInocStep)
	abunds := viability.Candidates(surfaceAbundMin, surfaceAbundMax, surfaceAbundStep)
	if len(inocula) == 0 || len(abunds) == 0 {
		return fmt.Errorf("%w: empty grid (%d inocula x %d abundances)", domain.ErrInvalidParameter, len(inocula), len(abunds))
	}

	ps := make([]domain.Params, 0, len(inocula)*len(abunds))
	for _, inoc := range inocula {
		for _, abund := range abunds {
			ps = append(ps, domain.Params{
				Inoculum:     inoc,
				RelAbundance: abund,
				Viability:    surfaceViability,
				Wells:        surfaceWells,
			})
		}
	}

	labels := plot.Labels{X: "inoculum", Y: "rel_abund", Z: "pure wells"}
	fmt.Fprintf(cmd.ErrOrStderr(), "Generating plot for %s (may take some time).....\n", labels.Title())

	recs, err := app.Estimator.PredictAll(cmd.Context(), ps)
	if err != nil {
		return fmt.Errorf("failed to predict grid: %w", err)
	}

	x := make([]float64, len(recs))
	y := make([]float64, len(recs))
	z := make([]float64, len(recs))
	for i, rec := range recs {
		x[i] = rec.Inoculum
		y[i] = rec.RelAbundance
		z[i] = rec.Pure.Median / float64(rec.Wells) * 100
	}

	opts := plot.SurfaceOptions{
		Frames:    surfaceFrames,
		FPS:       surfaceFPS,
		Elevation: surfaceElevation,
		Level:     surfaceElevation == 0,
	}
	if err := plot.Surface(labels, x, y, z, surfaceOutput, opts); err != nil {
		return fmt.Errorf("failed to write surface: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Surface written to %s\n", surfaceOutput)
	return nil
}
