package ports

import (
	"context"
	"time"
)

// MetricsExporter exports estimator metrics to an external observability system.
type MetricsExporter interface {
	// RecordStage records one completed sweep of the viability search.
	RecordStage(ctx context.Context, m *StageMetrics) error
	// RecordEstimate records a finished estimate.
	RecordEstimate(ctx context.Context, m *EstimateMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// StageMetrics describes one sweep of the viability search.
type StageMetrics struct {
	RunID      string
	Stage      string
	Step       float64
	Candidates int
	Survivors  int
	Bootstraps int // simulated experiments across all candidates
	Duration   time.Duration
}

// Estimate outcomes reported in EstimateMetrics.Outcome.
const (
	OutcomeResolved    = "resolved"
	OutcomeUnresolved  = "unresolved"
	OutcomeImplausible = "implausible"
)

// EstimateMetrics describes a completed viability estimate.
type EstimateMetrics struct {
	RunID    string
	Outcome  string
	Wells    int
	Stages   int
	Duration time.Duration
}
