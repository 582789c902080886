package viability

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/thrash-lab/viability-test/internal/domain"
)

// SearchConfig bounds the viability sweep.
type SearchConfig struct {
	Min   float64 // first candidate of the coarse sweep
	Max   float64 // coarse sweep stops before this value
	Step  float64 // coarse step
	Floor float64 // the fallback gives up once its step is no longer above Floor
}

// DefaultSearchConfig sweeps [0, 1) in steps of 0.01 and falls back down to
// steps of 1e-5.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{Min: 0, Max: 1, Step: 0.01, Floor: 1e-5}
}

// Validate checks the sweep bounds.
func (c SearchConfig) Validate() error {
	if !(c.Min >= 0 && c.Max <= 1) {
		return fmt.Errorf("%w: search bounds must lie in [0,1], got [%v, %v)", domain.ErrInvalidParameter, c.Min, c.Max)
	}
	if !(c.Step > 0) {
		return fmt.Errorf("%w: search step must be positive, got %v", domain.ErrInvalidParameter, c.Step)
	}
	if !(c.Floor > 0) {
		return fmt.Errorf("%w: search floor must be positive, got %v", domain.ErrInvalidParameter, c.Floor)
	}
	return nil
}

// Candidates returns start, start+step, ... for every value below stop.
// The result is empty when start >= stop.
func Candidates(start, stop, step float64) []float64 {
	if !(step > 0) || !(stop > start) {
		return nil
	}
	n := int(math.Ceil((stop - start) / step))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start+float64(i)*step)
	}
	return out
}

// Search runs the coarse, refine and fallback sweeps of a viability estimate.
type Search struct {
	Config    SearchConfig
	Evaluator Evaluator
	Pool      Pool

	// OnStage, when set, is called after every completed sweep.
	OnStage func(domain.StageTrace)
}

// searchState is the state machine driving Run. A sweep runs for every state
// until stage reaches StageDone.
type searchState struct {
	stage             domain.Stage
	start, stop, step float64
	coarse            domain.Range // survivor bounds of the coarse sweep
	result            domain.Range
}

// Run bounds the viabilities that explain q.Observed. The range is NaN on
// both sides when no candidate survives at the finest fallback step.
func (s Search) Run(ctx context.Context, q domain.Query) (domain.Range, []domain.StageTrace, error) {
	if err := s.Config.Validate(); err != nil {
		return domain.UnresolvedRange(), nil, err
	}

	st := searchState{
		stage: domain.StageCoarse,
		start: s.Config.Min,
		stop:  s.Config.Max,
		step:  s.Config.Step,
	}
	var traces []domain.StageTrace
	for st.stage != domain.StageDone {
		trace, err := s.sweep(ctx, q, st)
		if err != nil {
			return domain.UnresolvedRange(), traces, err
		}
		traces = append(traces, trace)
		st = s.next(st, trace.Survivors())
	}
	return st.result, traces, nil
}

// next computes the state that follows a sweep with the given survivors.
func (s Search) next(st searchState, survivors []float64) searchState {
	switch st.stage {
	case domain.StageCoarse:
		if len(survivors) > 0 {
			lo, hi := slices.Min(survivors), slices.Max(survivors)
			return searchState{
				stage:  domain.StageRefine,
				start:  math.Max(0, lo-st.step),
				stop:   math.Min(1, hi+st.step),
				step:   st.step / 10,
				coarse: domain.Range{Min: lo, Max: hi},
			}
		}
		return s.fallback(s.Config.Step)

	case domain.StageRefine:
		if len(survivors) > 0 {
			return done(domain.Range{Min: slices.Min(survivors), Max: slices.Max(survivors)})
		}
		return done(st.coarse)

	case domain.StageFallback:
		if len(survivors) > 0 {
			return done(domain.Range{Min: slices.Min(survivors), Max: slices.Max(survivors)})
		}
		return s.fallback(st.step)
	}
	return done(domain.UnresolvedRange())
}

// fallback narrows the window to [0, width) at a tenth of width, or gives up
// once width is no longer above the floor.
func (s Search) fallback(width float64) searchState {
	if !(width > s.Config.Floor) {
		return done(domain.UnresolvedRange())
	}
	return searchState{
		stage: domain.StageFallback,
		start: 0,
		stop:  width,
		step:  width / 10,
	}
}

func done(r domain.Range) searchState {
	return searchState{stage: domain.StageDone, result: r}
}

func (s Search) sweep(ctx context.Context, q domain.Query, st searchState) (domain.StageTrace, error) {
	began := time.Now()
	candidates := Candidates(st.start, st.stop, st.step)

	evals, err := Map(ctx, s.Pool, candidates, func(_ context.Context, v float64) (domain.Evaluation, error) {
		return s.Evaluator.Evaluate(q.Candidate(v))
	})
	if err != nil {
		return domain.StageTrace{}, fmt.Errorf("failed %s sweep: %w", st.stage, err)
	}

	trace := domain.StageTrace{
		Stage:       st.stage,
		Start:       st.start,
		Stop:        st.stop,
		Step:        st.step,
		Evaluations: evals,
		Elapsed:     time.Since(began),
	}
	if s.OnStage != nil {
		s.OnStage(trace)
	}
	return trace, nil
}
