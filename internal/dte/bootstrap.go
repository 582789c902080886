package dte

import (
	"fmt"
	"math/rand/v2"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/stats"
)

// DefaultExperiments is the number of bootstrap repeats per parameter set.
const DefaultExperiments = 9999

// Bootstrapper repeats Simulate and summarises each well count with a
// median and percentile interval.
type Bootstrapper struct {
	Experiments int
	Level       float64
}

// NewBootstrapper returns a Bootstrapper with a 95% interval.
func NewBootstrapper(experiments int) Bootstrapper {
	return Bootstrapper{Experiments: experiments, Level: stats.DefaultLevel}
}

// Series holds the per-experiment well counts of one bootstrap run.
type Series struct {
	Positive      []float64
	Single        []float64
	TaxonPositive []float64
	Pure          []float64
}

// Sample runs the simulator b.Experiments times, serially, and returns the
// four count series. Each series has exactly b.Experiments entries.
func (b Bootstrapper) Sample(p domain.Params, src rand.Source) Series {
	n := b.Experiments
	if n < 0 {
		n = 0
	}
	s := Series{
		Positive:      make([]float64, n),
		Single:        make([]float64, n),
		TaxonPositive: make([]float64, n),
		Pure:          make([]float64, n),
	}
	for i := 0; i < n; i++ {
		o := Simulate(p, src)
		s.Positive[i] = float64(o.PositiveWells)
		s.Single[i] = float64(o.SingleCellWells)
		s.TaxonPositive[i] = float64(o.TaxonPositiveWells)
		s.Pure[i] = float64(o.TaxonPureWells)
	}
	return s
}

// Run bootstraps one parameter set into a record.
func (b Bootstrapper) Run(p domain.Params, src rand.Source) (domain.BootstrapRecord, error) {
	if b.Experiments <= 0 {
		return domain.BootstrapRecord{}, fmt.Errorf("%w: experiments must be positive, got %d", domain.ErrInvalidParameter, b.Experiments)
	}
	s := b.Sample(p, src)

	rec := domain.BootstrapRecord{Params: p, Experiments: b.Experiments}
	var err error
	if rec.Positive, err = stats.Interval(s.Positive, b.level()); err != nil {
		return domain.BootstrapRecord{}, fmt.Errorf("positive wells: %w", err)
	}
	if rec.Single, err = stats.Interval(s.Single, b.level()); err != nil {
		return domain.BootstrapRecord{}, fmt.Errorf("single-cell wells: %w", err)
	}
	if rec.TaxonPositive, err = stats.Interval(s.TaxonPositive, b.level()); err != nil {
		return domain.BootstrapRecord{}, fmt.Errorf("taxon-positive wells: %w", err)
	}
	if rec.Pure, err = stats.Interval(s.Pure, b.level()); err != nil {
		return domain.BootstrapRecord{}, fmt.Errorf("pure wells: %w", err)
	}
	return rec, nil
}

func (b Bootstrapper) level() float64 {
	if b.Level == 0 {
		return stats.DefaultLevel
	}
	return b.Level
}
