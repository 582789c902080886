package domain

import (
	"github.com/thrash-lab/viability-test/internal/stats"
)

// BootstrapRecord summarises repeated simulations of one parameter set.
type BootstrapRecord struct {
	Params
	Experiments int

	Positive      stats.CI
	Single        stats.CI
	TaxonPositive stats.CI
	Pure          stats.CI
}

// recordColumns keeps the column names of the tabular form in field order.
var recordColumns = []string{
	"cells_per_well", "rel_abund", "viability",
	"num_wells", "number_of_experiments",
	"positive_well_med", "positive_well_95pc_low", "positive_well_95pc_high",
	"single_med", "single_low", "single_high",
	"taxon_positive_med", "taxon_positive_95pc_low", "taxon_positive_95pc_high",
	"pure_well_med", "pure_well_95pc_low", "pure_well_95pc_high",
}

// Columns returns the column names matching Values.
func (r BootstrapRecord) Columns() []string {
	out := make([]string, len(recordColumns))
	copy(out, recordColumns)
	return out
}

// Values returns the record flattened in Columns order.
func (r BootstrapRecord) Values() []float64 {
	return []float64{
		r.Inoculum, r.RelAbundance, r.Viability,
		float64(r.Wells), float64(r.Experiments),
		r.Positive.Median, r.Positive.Low, r.Positive.High,
		r.Single.Median, r.Single.Low, r.Single.High,
		r.TaxonPositive.Median, r.TaxonPositive.Low, r.TaxonPositive.High,
		r.Pure.Median, r.Pure.Low, r.Pure.High,
	}
}

// ExplainsPure reports whether an observed pure-well count lies within the
// pure-well interval, bounds included.
func (r BootstrapRecord) ExplainsPure(observed int) bool {
	return r.Pure.Contains(float64(observed))
}
