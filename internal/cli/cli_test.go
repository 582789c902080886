package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thrash-lab/viability-test/internal/adapters/otel"
	"github.com/thrash-lab/viability-test/internal/bulk"
	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/infrastructure/config"
)

// resetFlags restores every flag to its default, since flag values and their
// changed state outlive a single Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := run(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestPredictCommand(t *testing.T) {
	out, _, err := execute(t, "predict_wells", "-b", "50", "-p", "2", "--seed", "3",
		"-w", "96", "-i", "2", "-r", "0.05", "-v", "0.5")
	require.NoError(t, err)

	assert.Contains(t, out, "using 2 processors and 50 bootstraps")
	assert.Contains(t, out, "inoculated 96 wells")
	assert.Contains(t, out, "50.000%")
	assert.Contains(t, out, "The median number of pure wells for your taxon of interest was:")
}

func TestPredictCommand_Format(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		want    string
		wantErr string
	}{
		{"text", "text", "The median number of pure wells", ""},
		{"tsv", "tsv", "cells_per_well\trel_abund\tviability\tnum_wells", ""},
		{"unsupported", "csv", "", "unsupported format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "predict", "-b", "20", "--seed", "5",
				"-w", "96", "-i", "2", "-r", "0.5", "--format", tt.format)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestPredictCommand_InvalidParameter(t *testing.T) {
	_, _, err := execute(t, "predict", "-b", "10", "--seed", "1", "-w", "96", "-i", "2", "-r", "1.5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestPredictCommand_MissingRequiredFlag(t *testing.T) {
	_, _, err := execute(t, "predict", "-b", "10", "-w", "96")
	assert.ErrorContains(t, err, "inoculum")
}

func TestEstimateCommand_Implausible(t *testing.T) {
	out, _, err := execute(t, "estimate", "-b", "100", "--seed", "2", "-w", "96", "-i", "0.1", "-o", "80")
	require.NoError(t, err)

	assert.Contains(t, out, "at least 10% greater than the 95%CI maximum")
	assert.Contains(t, out, "You observed:")
}

func TestEstimateCommand_WritesChart(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "charts", "sweep.png")
	out, stderr, err := execute(t, "estimate_viability", "-b", "30", "-p", "4", "--seed", "8",
		"-w", "96", "-i", "1", "-o", "38", "--chart", chart)
	require.NoError(t, err)

	assert.Contains(t, out, "You observed:")
	assert.Contains(t, stderr, "Chart written to")
	info, err := os.Stat(chart)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestBulkCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "samples.tsv")
	output := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(input, []byte(
		"sample\twells\tinoculum\trel_abund\tnum_observed\n"+
			"A\t96\t1\t1\t38\n"+
			"B\t96\t0.1\t1\t80\n"), 0o644))

	_, stderr, err := execute(t, "bulk", "-b", "30", "--seed", "4", "-i", input, "-o", output, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Estimated 2 rows")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var rows []bulk.ExportRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Input["sample"])
	assert.Equal(t, "implausible", rows[1].Outcome)
	assert.False(t, rows[1].WithinRange)
}

func TestBulkCommand_UnsupportedFormat(t *testing.T) {
	_, _, err := execute(t, "bulk", "-b", "10", "-i", "-", "--format", "xlsx")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestSurfaceCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "plots", "grid.avi")
	_, stderr, err := execute(t, "surface", "-b", "20", "--seed", "6",
		"--inoculum-min", "0.5", "--inoculum-max", "1.5", "--inoculum-step", "0.5",
		"--rel_abund-min", "0.5", "--rel_abund-max", "1", "--rel_abund-step", "0.25",
		"--frames", "2", "--output", output)
	require.NoError(t, err)

	assert.Contains(t, stderr, "inoculum vs rel_abund effect on % pure wells")
	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func TestSurfaceCommand_EmptyGrid(t *testing.T) {
	_, _, err := execute(t, "surface", "-b", "10", "--inoculum-min", "2", "--inoculum-max", "1",
		"--output", filepath.Join(t.TempDir(), "x.avi"))
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestRootCommand_InvalidThreads(t *testing.T) {
	_, _, err := execute(t, "predict", "-p", "0", "-w", "96", "-i", "1")
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestRootCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viability.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n_bootstraps: 40\nthreads: 1\nseed: 12\n"), 0o644))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetFlags(rootCmd)
	require.NoError(t, rootCmd.PersistentFlags().Set("config", path))
	require.NoError(t, rootCmd.PersistentFlags().Set("threads", "2"))
	t.Cleanup(func() { resetFlags(rootCmd) })

	cfg, err := loadConfig(predictCmd)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Bootstraps)
	assert.Equal(t, 2, cfg.Threads)
	assert.Equal(t, uint64(12), cfg.Seed)
}

func TestSurfaceCommand_LevelView(t *testing.T) {
	output := filepath.Join(t.TempDir(), "level.avi")
	_, _, err := execute(t, "surface", "-b", "10", "--seed", "6",
		"--inoculum-min", "1", "--inoculum-max", "2", "--inoculum-step", "0.5",
		"--rel_abund-min", "0.5", "--rel_abund-max", "1", "--rel_abund-step", "0.5",
		"--frames", "1", "--elevation", "0", "--output", output)
	require.NoError(t, err)
	assert.FileExists(t, output)
}

// closeRecorder counts Close calls.
type closeRecorder struct {
	otel.NoOpExporter
	closed int
}

func (r *closeRecorder) Close(ctx context.Context) error {
	r.closed++
	return nil
}

func TestRun_ClosesAppOnCommandError(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"success", []string{"predict", "-b", "10", "--seed", "1", "-w", "96", "-i", "1", "-r", "1"}, false},
		{"command error", []string{"predict", "-b", "10", "--seed", "1", "-w", "96", "-i", "1", "-r", "1.5"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Nil(t, app)
		})
	}
}

func TestCloseApp(t *testing.T) {
	rec := &closeRecorder{}
	app = &AppContext{Metrics: rec}

	require.NoError(t, closeApp())
	assert.Equal(t, 1, rec.closed)
	assert.Nil(t, app)
	require.NoError(t, closeApp())
	assert.Equal(t, 1, rec.closed)
}

func TestRandomSeed(t *testing.T) {
	s, err := randomSeed()
	require.NoError(t, err)
	assert.NotZero(t, s)
}
