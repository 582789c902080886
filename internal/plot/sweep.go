package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/thrash-lab/viability-test/internal/domain"
)

// ErrTooFewPoints is returned when a sweep has fewer than two candidates.
var ErrTooFewPoints = errors.New("sweep chart needs at least two candidates")

// SweepChart writes a PNG of the pure-well interval across a sweep, with the
// observed count drawn as a horizontal line.
func SweepChart(trace domain.StageTrace, observed int, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := RenderSweep(f, trace, observed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderSweep renders the sweep chart as PNG to w.
func RenderSweep(w io.Writer, trace domain.StageTrace, observed int) error {
	n := len(trace.Evaluations)
	if n < 2 {
		return ErrTooFewPoints
	}

	xs := make([]float64, n)
	med := make([]float64, n)
	low := make([]float64, n)
	high := make([]float64, n)
	top := float64(observed)
	var survX, survY []float64
	for i, e := range trace.Evaluations {
		pure := e.Record.Pure
		xs[i] = e.Viability * 100
		med[i], low[i], high[i] = pure.Median, pure.Low, pure.High
		top = math.Max(top, pure.High)
		if e.Value() != 0 {
			survX = append(survX, xs[i])
			survY = append(survY, pure.Median)
		}
	}
	if xs[0] == xs[n-1] {
		return ErrTooFewPoints
	}

	band := chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}}
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "pure wells (median)",
			XValues: xs,
			YValues: med,
			Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
		},
		chart.ContinuousSeries{Name: "95% CI low", XValues: xs, YValues: low, Style: band},
		chart.ContinuousSeries{Name: "95% CI high", XValues: xs, YValues: high, Style: band},
		chart.ContinuousSeries{
			Name:    fmt.Sprintf("observed (%d)", observed),
			XValues: []float64{xs[0], xs[n-1]},
			YValues: []float64{float64(observed), float64(observed)},
			Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
		},
	}
	if len(survX) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "explains observation",
			XValues: survX,
			YValues: survY,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    3,
				DotColor:    chart.ColorGreen,
			},
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s sweep, step %g%%", trace.Stage, trace.Step*100),
		Width:  800,
		Height: 500,
		XAxis: chart.XAxis{
			Name:  "viability (%)",
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[n-1]},
		},
		YAxis: chart.YAxis{
			Name:  "pure wells",
			Range: &chart.ContinuousRange{Min: 0, Max: top + 1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
