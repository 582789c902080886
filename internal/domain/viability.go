package domain

import (
	"fmt"
	"math"
	"time"
)

// Query is an observed DTE result whose viability is to be estimated.
type Query struct {
	Inoculum     float64
	RelAbundance float64
	Wells        int
	Observed     int // observed pure-well count
}

// Params returns simulation parameters for the query at the given viability.
func (q Query) Params(viability float64) Params {
	return Params{
		Inoculum:     q.Inoculum,
		RelAbundance: q.RelAbundance,
		Viability:    viability,
		Wells:        q.Wells,
	}
}

// Candidate returns the evaluation unit for one viability value.
func (q Query) Candidate(viability float64) Candidate {
	return Candidate{
		Inoculum:     q.Inoculum,
		RelAbundance: q.RelAbundance,
		Viability:    viability,
		Wells:        q.Wells,
		Observed:     q.Observed,
	}
}

// Validate checks the query parameters and the observed count.
func (q Query) Validate() error {
	if err := q.Params(1).Validate(); err != nil {
		return err
	}
	if q.Observed < 0 {
		return fmt.Errorf("%w: observed count must be non-negative, got %d", ErrInvalidParameter, q.Observed)
	}
	return nil
}

// Candidate is one viability value tested against an observation.
type Candidate struct {
	Inoculum     float64
	RelAbundance float64
	Viability    float64
	Wells        int
	Observed     int
}

// Params returns the simulation parameters of the candidate.
func (c Candidate) Params() Params {
	return Params{
		Inoculum:     c.Inoculum,
		RelAbundance: c.RelAbundance,
		Viability:    c.Viability,
		Wells:        c.Wells,
	}
}

// Evaluation is the verdict for one candidate viability.
type Evaluation struct {
	Candidate
	Explains bool // observed count lies within the pure-well interval
	Record   BootstrapRecord
}

// Value returns the candidate viability when it explains the observation and
// 0 otherwise.
func (e Evaluation) Value() float64 {
	if e.Explains {
		return e.Viability
	}
	return 0
}

// Range bounds the viability values consistent with an observation.
// Both bounds are NaN when no candidate explained it at the finest step, and
// +Inf when the observation exceeds what full viability plausibly produces.
type Range struct {
	Min float64
	Max float64
}

// UnresolvedRange is returned when no candidate explains the observation.
func UnresolvedRange() Range {
	return Range{Min: math.NaN(), Max: math.NaN()}
}

// ImplausibleRange is returned when the observation is too high for any viability.
func ImplausibleRange() Range {
	return Range{Min: math.Inf(1), Max: math.Inf(1)}
}

// Resolved reports whether the range has finite bounds.
func (r Range) Resolved() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && !r.Implausible()
}

// Implausible reports whether the range marks an observation above full viability.
func (r Range) Implausible() bool {
	return math.IsInf(r.Min, 1) || math.IsInf(r.Max, 1)
}

// Stage names a phase of the viability search.
type Stage int

const (
	StageCoarse Stage = iota
	StageRefine
	StageFallback
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCoarse:
		return "coarse"
	case StageRefine:
		return "refine"
	case StageFallback:
		return "fallback"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// StageTrace records one sweep of the search.
type StageTrace struct {
	Stage       Stage
	Start       float64
	Stop        float64
	Step        float64
	Evaluations []Evaluation
	Elapsed     time.Duration
}

// Survivors returns the non-zero viabilities that explained the observation,
// in sweep order. A zero viability shares its value with the "no match"
// sentinel and never survives.
func (t StageTrace) Survivors() []float64 {
	var out []float64
	for _, e := range t.Evaluations {
		if v := e.Value(); v != 0 {
			out = append(out, v)
		}
	}
	return out
}

// Estimate is the full result of a guarded viability estimate.
type Estimate struct {
	RunID    string
	Query    Query
	Baseline BootstrapRecord // bootstrap at full viability
	Range    Range
	Stages   []StageTrace
	Elapsed  time.Duration
}

// Implausible reports whether the search was skipped because the observation
// exceeds the full-viability interval by more than the tolerance.
func (e Estimate) Implausible() bool {
	return e.Range.Implausible()
}
