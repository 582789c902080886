// Package stats computes the median and two-sided percentile interval used to
// summarise bootstrap samples.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	mstats "github.com/montanaflynn/stats"
)

// DefaultLevel is the two-sided confidence level, in percent.
const DefaultLevel = 95.0

var (
	ErrNoSamples    = errors.New("no samples")
	ErrInvalidLevel = errors.New("confidence level must be in (0, 100]")
)

// CI is a median with a two-sided percentile interval.
type CI struct {
	Median float64
	Low    float64
	High   float64
	Level  float64
}

// Contains reports whether v lies within [Low, High].
func (c CI) Contains(v float64) bool {
	return v >= c.Low && v <= c.High
}

// String formats the interval as "N.N wells (LOW-HIGH, 95% CI)".
func (c CI) String() string {
	return fmt.Sprintf("%.1f wells (%.1f-%.1f, %g%% CI)", c.Median, c.Low, c.High, c.Level)
}

// Interval returns the median of samples and the (100-level)/2 and
// 100-(100-level)/2 percentiles. samples is not modified.
func Interval(samples []float64, level float64) (CI, error) {
	if len(samples) == 0 {
		return CI{}, ErrNoSamples
	}
	if !(level > 0 && level <= 100) {
		return CI{}, fmt.Errorf("%w: got %v", ErrInvalidLevel, level)
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	median, err := mstats.Median(sorted)
	if err != nil {
		return CI{}, fmt.Errorf("median: %w", err)
	}

	tail := (100 - level) / 2
	return CI{
		Median: median,
		Low:    Percentile(sorted, tail),
		High:   Percentile(sorted, 100-tail),
		Level:  level,
	}, nil
}

// Percentile returns the p-th percentile (0 <= p <= 100) of an ascending
// slice, interpolating linearly between the two nearest ranks at position
// p/100*(n-1). A single-element or constant slice yields that value exactly.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	a, b := sorted[lo], sorted[lo+1]
	if a == b || frac == 0 {
		return a
	}
	return a + frac*(b-a)
}
