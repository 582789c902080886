// Package plot renders figures from simulation output: a rotating surface
// animation and a chart of a search sweep.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/icza/mjpeg"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrMismatchedData is returned for empty, ragged or non-finite coordinates.
var ErrMismatchedData = errors.New("x, y and z must be finite, non-empty and of equal length")

// Labels names the three axes.
type Labels struct {
	X, Y, Z string
}

// Title returns the figure title.
func (l Labels) Title() string {
	return fmt.Sprintf("%s vs %s effect on %% %s", l.X, l.Y, l.Z)
}

// SurfaceOptions controls the animation.
type SurfaceOptions struct {
	Frames    int // one azimuth step per frame over a full turn
	FPS       int
	Width     int // pixels
	Height    int
	Elevation float64 // degrees; zero selects the default unless Level is set
	Level     bool    // view edge-on at zero elevation
	Quality   int     // jpeg quality
}

// DefaultSurfaceOptions returns a one-degree-per-frame turn at 30 fps.
func DefaultSurfaceOptions() SurfaceOptions {
	return SurfaceOptions{
		Frames:    360,
		FPS:       30,
		Width:     640,
		Height:    480,
		Elevation: 10,
		Quality:   75,
	}
}

func (o SurfaceOptions) withDefaults() SurfaceOptions {
	d := DefaultSurfaceOptions()
	if o.Frames <= 0 {
		o.Frames = d.Frames
	}
	if o.FPS <= 0 {
		o.FPS = d.FPS
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Quality <= 0 {
		o.Quality = d.Quality
	}
	if o.Level {
		o.Elevation = 0
	} else if o.Elevation == 0 {
		o.Elevation = d.Elevation
	}
	return o
}

// point is a sample normalized into the unit cube and centred on the origin.
type point struct {
	x, y, z float64
	value   float64 // raw z, for colour
}

// Surface writes an MJPEG AVI of the (x, y, z) samples seen from a camera
// turning about the z axis. Parent directories of path are created.
func Surface(labels Labels, x, y, z []float64, path string, opts SurfaceOptions) error {
	if len(x) == 0 || len(x) != len(y) || len(x) != len(z) {
		return ErrMismatchedData
	}
	for _, v := range [][]float64{x, y, z} {
		for _, f := range v {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: non-finite value %g", ErrMismatchedData, f)
			}
		}
	}
	opts = opts.withDefaults()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	pts := normalize(x, y, z)
	cmap := moreland.SmoothBlueRed()
	lo, hi := bounds(z)
	if lo == hi {
		hi = lo + 1
	}
	cmap.SetMin(lo)
	cmap.SetMax(hi)

	aw, err := mjpeg.New(path, int32(opts.Width), int32(opts.Height), int32(opts.FPS))
	if err != nil {
		return fmt.Errorf("failed to create video writer: %w", err)
	}

	var buf bytes.Buffer
	for i := 0; i < opts.Frames; i++ {
		azimuth := float64(i+1) * 360 / float64(opts.Frames)
		p, err := frame(labels, pts, azimuth, opts.Elevation, cmap)
		if err != nil {
			aw.Close()
			return fmt.Errorf("failed to build frame %d: %w", i, err)
		}
		img := render(p, opts.Width, opts.Height)
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
			aw.Close()
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			aw.Close()
			return fmt.Errorf("failed to add frame %d: %w", i, err)
		}
		buf.Reset()
	}

	if err := aw.Close(); err != nil {
		return fmt.Errorf("failed to close video writer: %w", err)
	}
	return nil
}

// frame builds the plot of the samples projected at one camera position.
func frame(labels Labels, pts []point, azimuth, elevation float64, cmap palette.ColorMap) (*plot.Plot, error) {
	cam := newCamera(azimuth, elevation)

	projected := make([]projection, len(pts))
	for i, pt := range pts {
		projected[i] = cam.project(pt)
	}
	// Far points first so near ones are painted over them.
	sort.SliceStable(projected, func(i, j int) bool { return projected[i].depth > projected[j].depth })

	p := plot.New()
	p.Title.Text = labels.Title()
	p.HideAxes()
	p.X.Min, p.X.Max = -0.75, 0.75
	p.Y.Min, p.Y.Max = -0.9, 0.9

	floor := make(plotter.XYs, 0, 5)
	for _, c := range [][2]float64{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}, {-0.5, -0.5}} {
		pr := cam.project(point{x: c[0], y: c[1], z: -0.5})
		floor = append(floor, plotter.XY{X: pr.u, Y: pr.v})
	}
	edges, err := plotter.NewLine(floor)
	if err != nil {
		return nil, err
	}
	edges.Color = color.Gray{Y: 160}
	p.Add(edges)

	xys := make(plotter.XYs, len(projected))
	colors := make([]color.Color, len(projected))
	for i, pr := range projected {
		xys[i] = plotter.XY{X: pr.u, Y: pr.v}
		c, err := cmap.At(pr.value)
		if err != nil {
			return nil, fmt.Errorf("failed to colour %g: %w", pr.value, err)
		}
		colors[i] = c
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	}
	p.Add(sc)

	axes := plotter.XYLabels{Labels: []string{labels.X, labels.Y, labels.Z}}
	for _, end := range []point{{x: 0.6, y: -0.5, z: -0.5}, {x: -0.5, y: 0.6, z: -0.5}, {x: -0.5, y: -0.5, z: 0.6}} {
		pr := cam.project(end)
		axes.XYs = append(axes.XYs, plotter.XY{X: pr.u, Y: pr.v})
	}
	names, err := plotter.NewLabels(axes)
	if err != nil {
		return nil, err
	}
	p.Add(names)

	return p, nil
}

// camera is an orthographic view turning about the z axis.
type camera struct {
	sinA, cosA float64
	sinE, cosE float64
}

func newCamera(azimuth, elevation float64) camera {
	a := azimuth * math.Pi / 180
	e := elevation * math.Pi / 180
	return camera{sinA: math.Sin(a), cosA: math.Cos(a), sinE: math.Sin(e), cosE: math.Cos(e)}
}

type projection struct {
	u, v  float64 // screen coordinates
	depth float64 // larger is farther from the camera
	value float64
}

func (c camera) project(pt point) projection {
	u := pt.x*c.cosA - pt.y*c.sinA
	d := pt.x*c.sinA + pt.y*c.cosA
	return projection{
		u:     u,
		v:     pt.z*c.cosE + d*c.sinE,
		depth: d*c.cosE - pt.z*c.sinE,
		value: pt.value,
	}
}

func render(p *plot.Plot, width, height int) image.Image {
	// At 72 dpi one point is one pixel.
	c := vgimg.NewWith(vgimg.UseWH(vg.Length(width), vg.Length(height)), vgimg.UseDPI(72))
	p.Draw(draw.New(c))
	return c.Image()
}

// normalize maps every axis onto [-0.5, 0.5]. A constant axis maps to 0.
func normalize(x, y, z []float64) []point {
	xl, xh := bounds(x)
	yl, yh := bounds(y)
	zl, zh := bounds(z)
	pts := make([]point, len(x))
	for i := range x {
		pts[i] = point{
			x:     scale(x[i], xl, xh),
			y:     scale(y[i], yl, yh),
			z:     scale(z[i], zl, zh),
			value: z[i],
		}
	}
	return pts
}

func scale(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v-lo)/(hi-lo) - 0.5
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, f := range v {
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	return lo, hi
}
