package cli

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thrash-lab/viability-test/internal/infrastructure/config"
)

var rootCmd = &cobra.Command{
	Use:   "viability",
	Short: "Monte Carlo estimates of microbial viability in dilution-to-extinction experiments",
	Long: `viability simulates dilution-to-extinction (DTE) cultivation experiments.

Predict the wells a DTE should yield for a given inoculum, relative abundance
and viability, or estimate the range of viability that explains an observed
number of pure wells.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Persistent flags
var (
	rootBootstraps int
	rootThreads    int
	rootSeed       uint64
	rootConfig     string
	rootLogLevel   string
)

// app is built before every command runs and closed by run.
var app *AppContext

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run executes the root command and closes the app whether or not the
// command failed, so buffered metrics are flushed on both paths.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&rootBootstraps, "n_bootstraps", "b", config.DefaultBootstraps, "Number of simulated experiments per parameter set")
	flags.IntVarP(&rootThreads, "threads", "p", config.DefaultThreads, "Worker threads (-1 uses every CPU)")
	flags.Uint64Var(&rootSeed, "seed", 0, "Random seed (0 draws a fresh one)")
	flags.StringVar(&rootConfig, "config", "", "YAML config file (default: $XDG_CONFIG_HOME/viability/config.yaml)")
	flags.StringVar(&rootLogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err = NewAppContext(cmd.Context(), cfg, cmd.ErrOrStderr())
	return err
}

func closeApp() error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// loadConfig layers the flags the user set over file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootConfig)
	if err != nil {
		return nil, err
	}

	var o config.Overrides
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("n_bootstraps") {
		o.Bootstraps = &rootBootstraps
	}
	if flags.Changed("threads") {
		o.Threads = &rootThreads
	}
	if flags.Changed("seed") {
		o.Seed = &rootSeed
	}
	if flags.Changed("log-level") {
		o.LogLevel = &rootLogLevel
	}
	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		if cfg.Seed, err = randomSeed(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func randomSeed() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to draw seed: %w", err)
	}
	if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
		return s, nil
	}
	return 1, nil
}
