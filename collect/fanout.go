package collect

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/golang/aetherresolve/graph"
)

// PrefetchDescriptors warms c.Descriptors for every coordinate in coords
// concurrently, bounded by concurrency (0 means unbounded). processItem
// calls it with one dependency's candidate-version coordinates before it
// tries them one at a time, so that the candidates' descriptor reads
// overlap instead of serializing. Errors are swallowed here: processItem's
// own (authoritative) read of each candidate reports any failure, handled
// there per the descriptor Policy.
func (c *Collector) PrefetchDescriptors(ctx context.Context, coords []graph.Coordinate, concurrency int) {
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, coord := range coords {
		coord := coord
		g.Go(func() error {
			_, _ = c.Descriptors.ReadDescriptor(gctx, coord)
			return nil
		})
	}
	_ = g.Wait()
}
