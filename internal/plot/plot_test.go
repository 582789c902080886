package plot

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/stats"
)

func grid() (x, y, z []float64) {
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			x = append(x, float64(i))
			y = append(y, float64(j)/4)
			z = append(z, float64(i*j))
		}
	}
	return x, y, z
}

func TestSurface_WritesAVI(t *testing.T) {
	x, y, z := grid()
	path := filepath.Join(t.TempDir(), "plots", "surface.avi")

	err := Surface(Labels{X: "inoculum", Y: "rel_abund", Z: "pure wells"}, x, y, z, path,
		SurfaceOptions{Frames: 3, FPS: 5, Width: 120, Height: 90})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "AVI ", string(data[8:12]))
}

func TestSurface_ConstantValues(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{1, 1, 1}
	z := []float64{7, 7, 7}
	path := filepath.Join(t.TempDir(), "flat.avi")

	require.NoError(t, Surface(Labels{X: "a", Y: "b", Z: "c"}, x, y, z, path, SurfaceOptions{Frames: 1, Width: 60, Height: 40}))
}

func TestSurface_RejectsBadData(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		x, y, z []float64
	}{
		{"empty", nil, nil, nil},
		{"ragged", []float64{1, 2}, []float64{1}, []float64{1, 2}},
		{"nan", []float64{1, 2}, []float64{1, 2}, []float64{1, math.NaN()}},
		{"inf", []float64{1, math.Inf(1)}, []float64{1, 2}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Surface(Labels{}, tt.x, tt.y, tt.z, filepath.Join(dir, tt.name+".avi"), SurfaceOptions{Frames: 1})
			assert.True(t, errors.Is(err, ErrMismatchedData))
		})
	}
}

func TestSurfaceOptions_Defaults(t *testing.T) {
	got := SurfaceOptions{}.withDefaults()
	assert.Equal(t, DefaultSurfaceOptions(), got)
	assert.Equal(t, 360, got.Frames)
	assert.Equal(t, 30, got.FPS)
	assert.Equal(t, 10.0, got.Elevation)
}

func TestSurfaceOptions_Elevation(t *testing.T) {
	tests := []struct {
		name string
		opts SurfaceOptions
		want float64
	}{
		{"unset uses default", SurfaceOptions{}, 10},
		{"explicit kept", SurfaceOptions{Elevation: 35}, 35},
		{"below the floor kept", SurfaceOptions{Elevation: -20}, -20},
		{"level view", SurfaceOptions{Level: true}, 0},
		{"level wins over elevation", SurfaceOptions{Elevation: 35, Level: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.withDefaults().Elevation)
		})
	}
}

func TestLabels_Title(t *testing.T) {
	l := Labels{X: "inoculum", Y: "rel_abund", Z: "pure wells"}
	assert.Equal(t, "inoculum vs rel_abund effect on % pure wells", l.Title())
}

func TestNormalize(t *testing.T) {
	pts := normalize([]float64{0, 10}, []float64{3, 3}, []float64{-1, 1})
	require.Len(t, pts, 2)
	assert.Equal(t, -0.5, pts[0].x)
	assert.Equal(t, 0.5, pts[1].x)
	assert.Equal(t, 0.0, pts[0].y)
	assert.Equal(t, -1.0, pts[0].value)
}

func TestCamera_ProjectionKeepsPointsInView(t *testing.T) {
	corners := []point{}
	for _, x := range []float64{-0.5, 0.5} {
		for _, y := range []float64{-0.5, 0.5} {
			for _, z := range []float64{-0.5, 0.5} {
				corners = append(corners, point{x: x, y: y, z: z})
			}
		}
	}
	for az := 0.0; az < 360; az += 15 {
		cam := newCamera(az, 10)
		for _, c := range corners {
			pr := cam.project(c)
			assert.LessOrEqual(t, math.Abs(pr.u), 0.75)
			assert.LessOrEqual(t, math.Abs(pr.v), 0.9)
		}
	}
}

func sweepTrace(n int, observed int) domain.StageTrace {
	tr := domain.StageTrace{Stage: domain.StageCoarse, Start: 0, Stop: 1, Step: 1 / float64(n)}
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n)
		med := 40 * v
		pure := stats.CI{Median: med, Low: med * 0.7, High: med*1.3 + 1, Level: 95}
		tr.Evaluations = append(tr.Evaluations, domain.Evaluation{
			Candidate: domain.Candidate{Viability: v, Wells: 96, Observed: observed},
			Explains:  float64(observed) >= pure.Low && float64(observed) <= pure.High,
			Record:    domain.BootstrapRecord{Pure: pure},
		})
	}
	return tr
}

func TestRenderSweep(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSweep(&buf, sweepTrace(20, 15), 15))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderSweep_NoSurvivors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSweep(&buf, sweepTrace(10, 90), 90))
	assert.NotZero(t, buf.Len())
}

func TestRenderSweep_TooFewPoints(t *testing.T) {
	err := RenderSweep(&bytes.Buffer{}, sweepTrace(1, 3), 3)
	assert.True(t, errors.Is(err, ErrTooFewPoints))
}

func TestSweepChart_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "sweep.png")
	require.NoError(t, SweepChart(sweepTrace(10, 12), 12, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
