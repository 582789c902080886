package domain

import (
	"errors"
	"fmt"
	"math"
)

// DefaultWells is the plate size used when none is given (a 96-well plate).
const DefaultWells = 96

// ErrInvalidParameter is wrapped by every parameter validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// Params describes one simulated dilution-to-extinction experiment.
type Params struct {
	Inoculum     float64 // mean number of cells deposited per well
	RelAbundance float64 // fraction of inoculum cells belonging to the taxon
	Viability    float64 // probability that a taxon cell is culturable
	Wells        int
}

// Validate checks the parameters against the model's domain.
// The simulator itself does not call it; callers validate before simulating.
func (p Params) Validate() error {
	if !(p.Inoculum > 0) || math.IsInf(p.Inoculum, 0) {
		return fmt.Errorf("%w: inoculum must be a positive number, got %v", ErrInvalidParameter, p.Inoculum)
	}
	if p.Wells <= 0 {
		return fmt.Errorf("%w: wells must be positive, got %d", ErrInvalidParameter, p.Wells)
	}
	if !inUnitRange(p.RelAbundance) {
		return fmt.Errorf("%w: relative abundance must be in [0,1], got %v", ErrInvalidParameter, p.RelAbundance)
	}
	if !inUnitRange(p.Viability) {
		return fmt.Errorf("%w: viability must be in [0,1], got %v", ErrInvalidParameter, p.Viability)
	}
	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Outcome holds the well counts of a single simulated plate.
type Outcome struct {
	PositiveWells      int // wells with at least one cell, less unviable pure wells
	SingleCellWells    int // wells inoculated with exactly one cell
	TaxonPositiveWells int // wells holding at least one taxon cell
	TaxonPureWells     int // wells holding only taxon cells, at least one of them viable
}
