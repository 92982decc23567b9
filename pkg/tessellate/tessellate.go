// Package tessellate walks a section graph and reconstructs one triangle
// mesh per stitch link using a reconstruction kernel. Links are independent
// and run in parallel; a failing link never affects the others.
package tessellate

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/morphmesh/pkg/graph"
	"github.com/chazu/morphmesh/pkg/kernel"
)

// DefaultWorkers is the number of links reconstructed at once by default.
const DefaultWorkers = 4

// Options controls Tessellate.
type Options struct {
	// Workers bounds concurrent reconstructions. Values below 1 mean 1.
	Workers int
	Logger  *zap.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Workers: DefaultWorkers}
}

// Result is the outcome of one link.
type Result struct {
	Link     graph.Link
	Mesh     *kernel.Mesh // nil when Err is set
	Err      error
	Duration time.Duration
}

// OK reports whether the link produced a mesh.
func (r Result) OK() bool {
	return r.Err == nil && r.Mesh != nil
}

// Tessellate reconstructs every distinct link in g with k. Results come back
// in link order, one per link, each carrying its own mesh or error. The graph
// is never mutated. Cancelling ctx makes links that have not started fail
// with the context error.
func Tessellate(ctx context.Context, g *graph.SectionGraph, k kernel.Kernel, opts Options) []Result {
	if g == nil {
		return nil
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("kernel", k.Name()))

	links := graph.UniqueLinks(g)
	results := make([]Result, len(links))

	var eg errgroup.Group
	eg.SetLimit(max(opts.Workers, 1))
	for i, l := range links {
		eg.Go(func() error {
			results[i] = reconstruct(ctx, g, k, l)
			logResult(log, results[i])
			return nil
		})
	}
	_ = eg.Wait() // workers never return errors; failures stay in results

	return results
}

// reconstruct runs one link.
func reconstruct(ctx context.Context, g *graph.SectionGraph, k kernel.Kernel, l graph.Link) Result {
	start := time.Now()
	res := Result{Link: l}

	lower, upper, err := g.Resolve(l)
	if err == nil {
		res.Mesh, err = k.Reconstruct(ctx, lower.Kernel(), upper.Kernel())
	}
	if err != nil {
		res.Mesh = nil
		res.Err = err
	}
	res.Duration = time.Since(start)
	return res
}

func logResult(log *zap.Logger, r Result) {
	fields := []zap.Field{
		zap.Stringer("link", r.Link),
		zap.Duration("duration", r.Duration),
	}
	if r.Err != nil {
		log.Warn("link failed", append(fields, zap.Error(r.Err))...)
		return
	}
	log.Debug("link reconstructed", append(fields,
		zap.Int("vertices", r.Mesh.VertexCount()),
		zap.Int("triangles", r.Mesh.TriangleCount()),
	)...)
}

// Counts returns how many results succeeded and failed.
func Counts(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
