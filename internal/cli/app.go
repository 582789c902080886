package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/thrash-lab/viability-test/internal/adapters/logger"
	"github.com/thrash-lab/viability-test/internal/adapters/otel"
	"github.com/thrash-lab/viability-test/internal/infrastructure/config"
	"github.com/thrash-lab/viability-test/internal/ports"
	"github.com/thrash-lab/viability-test/internal/viability"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config    *config.Config
	Logger    ports.Logger
	Metrics   ports.MetricsExporter
	Estimator *viability.Estimator
}

// NewAppContext creates an AppContext with all dependencies initialized.
// Metrics fall back to a no-op exporter when OTEL is not enabled.
func NewAppContext(ctx context.Context, cfg *config.Config, logOut io.Writer) (*AppContext, error) {
	log, err := logger.New(logOut, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	otelCfg, err := otel.LoadConfig()
	if err != nil {
		return nil, err
	}
	var metrics ports.MetricsExporter
	exp, err := otel.NewExporter(ctx, otelCfg)
	switch {
	case errors.Is(err, otel.ErrDisabled):
		metrics = otel.NewNoOpExporter()
	case err != nil:
		return nil, fmt.Errorf("failed to initialize metrics exporter: %w", err)
	default:
		metrics = exp
	}

	log.Debug("configuration loaded",
		"bootstraps", cfg.Bootstraps, "workers", cfg.Workers(), "seed", cfg.Seed, "otel", otelCfg.Enabled)

	return &AppContext{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Estimator: viability.New(viability.Options{
			Experiments: cfg.Bootstraps,
			Workers:     cfg.Workers(),
			Seed:        cfg.Seed,
			Metrics:     metrics,
			Logger:      log,
		}),
	}, nil
}

// Close flushes and releases the metrics exporter.
func (a *AppContext) Close() error {
	if a.Metrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.Metrics.Close(ctx)
}
