package viability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/dte"
	"github.com/thrash-lab/viability-test/internal/ports"
)

// ImplausibleFactor is how far the observed count may exceed the upper
// pure-well bound at full viability before the search is skipped.
const ImplausibleFactor = 1.1

// Options configures an Estimator.
type Options struct {
	Experiments int    // bootstrap repeats per candidate
	Workers     int    // <= 0 uses every CPU
	Seed        uint64 // root of every candidate's random stream
	Search      SearchConfig

	Metrics ports.MetricsExporter // optional
	Logger  ports.Logger          // optional
}

// Estimator predicts well counts and estimates viability.
type Estimator struct {
	evaluator Evaluator
	pool      Pool
	search    SearchConfig
	metrics   ports.MetricsExporter
	logger    ports.Logger
}

// New returns an Estimator. A zero Search config uses DefaultSearchConfig.
func New(opts Options) *Estimator {
	search := opts.Search
	if search == (SearchConfig{}) {
		search = DefaultSearchConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Estimator{
		evaluator: Evaluator{Bootstrapper: dte.NewBootstrapper(opts.Experiments), Seed: opts.Seed},
		pool:      NewPool(opts.Workers),
		search:    search,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Experiments returns the number of bootstrap repeats per parameter set.
func (e *Estimator) Experiments() int { return e.evaluator.Bootstrapper.Experiments }

// Workers returns the effective worker count.
func (e *Estimator) Workers() int { return e.pool.Size() }

// Predict bootstraps a fully specified parameter set once.
func (e *Estimator) Predict(ctx context.Context, p domain.Params) (domain.BootstrapRecord, error) {
	if err := p.Validate(); err != nil {
		return domain.BootstrapRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.BootstrapRecord{}, err
	}
	rec, err := e.evaluator.Bootstrapper.Run(p, e.evaluator.Source(p))
	if err != nil {
		return domain.BootstrapRecord{}, fmt.Errorf("failed to predict wells: %w", err)
	}
	return rec, nil
}

// PredictAll bootstraps every parameter set on the worker pool. out[i] is
// the record for ps[i].
func (e *Estimator) PredictAll(ctx context.Context, ps []domain.Params) ([]domain.BootstrapRecord, error) {
	for i, p := range ps {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("parameter set %d: %w", i, err)
		}
	}
	return Map(ctx, e.pool, ps, e.Predict)
}

// Estimate bounds the viability consistent with q. An observation more than
// ImplausibleFactor above the full-viability upper bound skips the search
// and yields an infinite range.
func (e *Estimator) Estimate(ctx context.Context, q domain.Query) (domain.Estimate, error) {
	if err := q.Validate(); err != nil {
		return domain.Estimate{}, err
	}

	began := time.Now()
	est := domain.Estimate{RunID: uuid.NewString(), Query: q}
	log := runLogger{l: e.logger, runID: est.RunID}

	log.Info("estimate started",
		"wells", q.Wells, "inoculum", q.Inoculum, "rel_abund", q.RelAbundance,
		"observed", q.Observed, "bootstraps", e.Experiments(), "workers", e.Workers())

	baseline, err := e.Predict(ctx, q.Params(1))
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("failed to bootstrap full viability: %w", err)
	}
	est.Baseline = baseline

	if Implausible(baseline, q.Observed) {
		log.Info("observation above full viability, search skipped",
			"observed", q.Observed, "pure_well_95pc_high", baseline.Pure.High)
		est.Range = domain.ImplausibleRange()
	} else {
		search := Search{
			Config:    e.search,
			Evaluator: e.evaluator,
			Pool:      e.pool,
			OnStage:   func(t domain.StageTrace) { e.recordStage(ctx, log, t) },
		}
		est.Range, est.Stages, err = search.Run(ctx, q)
		if err != nil {
			return domain.Estimate{}, err
		}
	}

	est.Elapsed = time.Since(began)
	e.recordEstimate(ctx, log, est)
	return est, nil
}

// Implausible reports whether observed exceeds the full-viability upper
// pure-well bound by more than ImplausibleFactor.
func Implausible(baseline domain.BootstrapRecord, observed int) bool {
	return baseline.Pure.High*ImplausibleFactor < float64(observed)
}

func (e *Estimator) recordStage(ctx context.Context, log runLogger, t domain.StageTrace) {
	survivors := t.Survivors()
	log.Debug("stage complete",
		"stage", t.Stage.String(), "start", t.Start, "stop", t.Stop, "step", t.Step,
		"candidates", len(t.Evaluations), "survivors", len(survivors), "elapsed", t.Elapsed)

	if e.metrics == nil {
		return
	}
	m := &ports.StageMetrics{
		RunID:      log.runID,
		Stage:      t.Stage.String(),
		Step:       t.Step,
		Candidates: len(t.Evaluations),
		Survivors:  len(survivors),
		Bootstraps: len(t.Evaluations) * e.Experiments(),
		Duration:   t.Elapsed,
	}
	if err := e.metrics.RecordStage(ctx, m); err != nil {
		log.Error("failed to record stage metrics", "error", err)
	}
}

func (e *Estimator) recordEstimate(ctx context.Context, log runLogger, est domain.Estimate) {
	outcome := Outcome(est.Range)
	log.Info("estimate finished",
		"outcome", outcome, "min", est.Range.Min, "max", est.Range.Max,
		"stages", len(est.Stages), "elapsed", est.Elapsed)

	if e.metrics == nil {
		return
	}
	m := &ports.EstimateMetrics{
		RunID:    est.RunID,
		Outcome:  outcome,
		Wells:    est.Query.Wells,
		Stages:   len(est.Stages),
		Duration: est.Elapsed,
	}
	if err := e.metrics.RecordEstimate(ctx, m); err != nil {
		log.Error("failed to record estimate metrics", "error", err)
	}
}

// Outcome classifies a range as resolved, unresolved or implausible.
func Outcome(r domain.Range) string {
	switch {
	case r.Implausible():
		return ports.OutcomeImplausible
	case r.Resolved():
		return ports.OutcomeResolved
	default:
		return ports.OutcomeUnresolved
	}
}

// runLogger tags every record with the estimate's run id.
type runLogger struct {
	l     ports.Logger
	runID string
}

func (r runLogger) Debug(msg string, args ...any) {
	r.l.Debug(msg, append([]any{"run_id", r.runID}, args...)...)
}
func (r runLogger) Info(msg string, args ...any) {
	r.l.Info(msg, append([]any{"run_id", r.runID}, args...)...)
}
func (r runLogger) Error(msg string, args ...any) {
	r.l.Error(msg, append([]any{"run_id", r.runID}, args...)...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
