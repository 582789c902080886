package dte

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thrash-lab/viability-test/internal/domain"
)

func assertOutcomeInvariants(t *testing.T, p domain.Params, o domain.Outcome) {
	t.Helper()
	assert.GreaterOrEqual(t, o.TaxonPureWells, 0, "pure wells")
	assert.LessOrEqual(t, o.TaxonPureWells, o.TaxonPositiveWells, "pure <= taxon positive")
	assert.LessOrEqual(t, o.TaxonPureWells, o.PositiveWells, "pure <= positive")
	assert.LessOrEqual(t, o.TaxonPositiveWells, p.Wells, "taxon positive <= wells")
	assert.LessOrEqual(t, o.PositiveWells, p.Wells, "positive <= wells")
	// Dead pure wells leave the positive count but stay taxon-positive, so
	// the full chain only holds at full viability.
	if p.Viability == 1 {
		assert.LessOrEqual(t, o.TaxonPositiveWells, o.PositiveWells, "taxon positive <= positive")
	}
	assert.GreaterOrEqual(t, o.SingleCellWells, 0, "single wells")
	assert.LessOrEqual(t, o.SingleCellWells, p.Wells, "single <= wells")
}

func TestSimulate_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		params domain.Params
	}{
		{"sparse inoculum", domain.Params{Inoculum: 0.1, RelAbundance: 0.5, Viability: 1, Wells: 96}},
		{"typical dte", domain.Params{Inoculum: 2, RelAbundance: 0.05, Viability: 1, Wells: 96}},
		{"low viability", domain.Params{Inoculum: 2, RelAbundance: 0.8, Viability: 0.1, Wells: 96}},
		{"dense inoculum", domain.Params{Inoculum: 40, RelAbundance: 0.99, Viability: 0.5, Wells: 384}},
		{"dead taxon", domain.Params{Inoculum: 1.5, RelAbundance: 0.3, Viability: 0, Wells: 48}},
		{"single well", domain.Params{Inoculum: 1, RelAbundance: 1, Viability: 0.5, Wells: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := rand.NewPCG(42, 7)
			for i := 0; i < 200; i++ {
				assertOutcomeInvariants(t, tt.params, Simulate(tt.params, src))
			}
		})
	}
}

func FuzzSimulate(f *testing.F) {
	f.Add(uint64(1), 2.0, 0.05, 1.0, uint16(96))
	f.Add(uint64(2), 0.5, 1.0, 0.3, uint16(12))
	f.Add(uint64(3), 25.0, 0.9, 0.0, uint16(384))

	f.Fuzz(func(t *testing.T, seed uint64, inoculum, abund, viability float64, wells uint16) {
		p := domain.Params{Inoculum: inoculum, RelAbundance: abund, Viability: viability, Wells: int(wells)}
		if p.Validate() != nil || inoculum > 100 {
			t.Skip()
		}
		o := Simulate(p, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		assertOutcomeInvariants(t, p, o)
	})
}

func TestSimulate_FixedSeedIsReproducible(t *testing.T) {
	p := domain.Params{Inoculum: 2, RelAbundance: 0.05, Viability: 0.4, Wells: 96}
	a := Simulate(p, rand.NewPCG(11, 13))
	b := Simulate(p, rand.NewPCG(11, 13))
	assert.Equal(t, a, b)
}

func TestSimulate_FullAbundanceMakesEveryPositiveWellPure(t *testing.T) {
	p := domain.Params{Inoculum: 1.2, RelAbundance: 1, Viability: 1, Wells: 96}
	src := rand.NewPCG(5, 5)
	for i := 0; i < 100; i++ {
		o := Simulate(p, src)
		assert.Equal(t, o.PositiveWells, o.TaxonPositiveWells)
		assert.Equal(t, o.PositiveWells, o.TaxonPureWells)
	}
}

func TestSimulate_ZeroAbundanceHasNoTaxonWells(t *testing.T) {
	p := domain.Params{Inoculum: 3, RelAbundance: 0, Viability: 1, Wells: 96}
	src := rand.NewPCG(8, 9)
	for i := 0; i < 100; i++ {
		o := Simulate(p, src)
		assert.Zero(t, o.TaxonPositiveWells)
		assert.Zero(t, o.TaxonPureWells)
	}
}

func TestApplyViability_FullViabilityIsNoOp(t *testing.T) {
	before := domain.Outcome{PositiveWells: 40, SingleCellWells: 20, TaxonPositiveWells: 12, TaxonPureWells: 4}
	pure := []float64{1, 3, 1, 2}

	got := before
	applyViability(&got, pure, 1, rand.NewPCG(1, 1))
	assert.Equal(t, before, got)
}

// Unviable pure wells drop out of both the pure and the positive count, and
// nothing else moves. The well deposition draws come before the viability
// draws, so a run at full viability on the same stream is the unfiltered
// baseline.
func TestSimulate_UnviablePureWellsLeavePositiveCount(t *testing.T) {
	for _, viability := range []float64{0, 0.05, 0.3, 0.9} {
		for seed := uint64(0); seed < 50; seed++ {
			p := domain.Params{Inoculum: 1.5, RelAbundance: 0.7, Viability: 1, Wells: 96}
			full := Simulate(p, rand.NewPCG(seed, 3))

			p.Viability = viability
			got := Simulate(p, rand.NewPCG(seed, 3))

			require.Equal(t, full.SingleCellWells, got.SingleCellWells)
			require.Equal(t, full.TaxonPositiveWells, got.TaxonPositiveWells)
			lost := full.TaxonPureWells - got.TaxonPureWells
			require.GreaterOrEqual(t, lost, 0)
			require.Equal(t, full.PositiveWells-lost, got.PositiveWells,
				"viability %v seed %d", viability, seed)
			if viability == 0 {
				require.Zero(t, got.TaxonPureWells)
			}
		}
	}
}

func BenchmarkSimulate(b *testing.B) {
	p := domain.Params{Inoculum: 2, RelAbundance: 0.05, Viability: 0.5, Wells: domain.DefaultWells}
	src := rand.NewPCG(1, 2)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Simulate(p, src)
	}
}
