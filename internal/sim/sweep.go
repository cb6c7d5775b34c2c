package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/quantity"
)

// Sweep runs base once per entry of overrides, with the entry's values
// replacing or adding invariant parameters. Runs execute in parallel, each
// with its own System and integrator. Results are in overrides order; the
// first failing run cancels the rest.
func (s *Simulator) Sweep(ctx context.Context, base SimulationInput, overrides []*quantity.Map) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(overrides))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, o := range overrides {
		in := base
		in.Parameters = base.Parameters.Clone()
		in.Parameters.Merge(o)

		g.Go(func() error {
			res, err := s.Simulate(ctx, in)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
