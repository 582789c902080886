// Package viability inverts the DTE simulation: it searches for the
// viabilities whose simulated pure-well interval contains an observed count.
package viability

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/dte"
)

// candidateResolution is the granularity at which candidate viabilities share
// a random stream.
const candidateResolution = 1e9

// Evaluator tests one candidate viability against an observation.
//
// Every candidate draws from its own PCG stream keyed by Seed and the
// candidate parameters, so a candidate gets the same verdict whichever sweep
// evaluates it and evaluations can run in any order.
type Evaluator struct {
	Bootstrapper dte.Bootstrapper
	Seed         uint64
}

// Evaluate bootstraps the candidate and checks the observed pure-well count
// against the resulting interval, bounds included.
func (e Evaluator) Evaluate(c domain.Candidate) (domain.Evaluation, error) {
	rec, err := e.Bootstrapper.Run(c.Params(), e.Source(c.Params()))
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("failed to bootstrap viability %v: %w", c.Viability, err)
	}
	return domain.Evaluation{
		Candidate: c,
		Explains:  rec.ExplainsPure(c.Observed),
		Record:    rec,
	}, nil
}

// Source returns the random stream for a parameter set.
func (e Evaluator) Source(p domain.Params) rand.Source {
	return rand.NewPCG(e.Seed, streamKey(p))
}

func streamKey(p domain.Params) uint64 {
	k := splitmix(uint64(math.Round(p.Viability * candidateResolution)))
	k = splitmix(k ^ math.Float64bits(p.Inoculum))
	k = splitmix(k ^ math.Float64bits(p.RelAbundance))
	return splitmix(k ^ uint64(p.Wells))
}

// splitmix is the SplitMix64 finaliser.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
