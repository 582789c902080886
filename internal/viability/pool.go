package viability

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs a batch of independent jobs on a bounded number of goroutines.
type Pool struct {
	Workers int // <= 0 uses every CPU
}

// NewPool returns a pool of the given size; -1 means every CPU.
func NewPool(workers int) Pool {
	return Pool{Workers: workers}
}

// Size returns the effective number of workers.
func (p Pool) Size() int {
	if p.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.Workers
}

// Map applies fn to every input and blocks until the whole batch is done.
// out[i] is the result for in[i]. The first error cancels the jobs that have
// not started yet and is returned.
func Map[T, R any](ctx context.Context, p Pool, in []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	if len(in) == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Size())
	for i, v := range in {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(ctx, v)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
