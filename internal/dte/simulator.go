// Package dte simulates dilution-to-extinction culturing experiments.
//
// A plate of wells is inoculated with Poisson-distributed cell counts, each
// cell belongs to the taxon of interest with probability equal to its
// relative abundance, and taxon cells in otherwise pure wells survive with
// probability equal to the viability.
//
// # Determinism
//
// Simulate draws every random number from the source it is given, so two
// calls with sources in the same state produce the same Outcome.
package dte

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/thrash-lab/viability-test/internal/domain"
)

// Simulate runs one experiment and returns its well counts.
//
// Parameters are not validated; see domain.Params.Validate.
func Simulate(p domain.Params, src rand.Source) domain.Outcome {
	inocula := distuv.Poisson{Lambda: p.Inoculum, Src: src}
	partition := distuv.Binomial{P: p.RelAbundance, Src: src}

	var out domain.Outcome
	// taxon cell counts of the wells whose cells are all taxon cells
	var pure []float64

	for w := 0; w < p.Wells; w++ {
		cells := inocula.Rand()
		if cells < 1 {
			continue
		}
		partition.N = cells
		taxon := partition.Rand()

		out.PositiveWells++
		if cells == 1 {
			out.SingleCellWells++
		}
		if taxon >= 1 {
			out.TaxonPositiveWells++
		}
		if taxon == cells {
			pure = append(pure, taxon)
		}
	}
	out.TaxonPureWells = len(pure)

	if p.Viability < 1 {
		applyViability(&out, pure, p.Viability, src)
	}
	return out
}

// applyViability keeps a pure well pure only if at least one of its taxon
// cells survives. A pure well with no surviving cell also stops counting as
// positive.
func applyViability(out *domain.Outcome, pure []float64, viability float64, src rand.Source) {
	survival := distuv.Binomial{P: viability, Src: src}

	viable := 0
	for _, cells := range pure {
		survival.N = cells
		if survival.Rand() >= 1 {
			viable++
		}
	}
	out.TaxonPureWells = viable
	out.PositiveWells -= len(pure) - viable
}
