package tessellate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/morphmesh/pkg/bajaj"
	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/graph"
	"github.com/chazu/morphmesh/pkg/kernel"
	"github.com/chazu/morphmesh/pkg/tessellate"
)

// newKernel returns the production reconstruction kernel.
func newKernel() kernel.Kernel {
	return bajaj.New(bajaj.DefaultOptions())
}

// addSquare adds a square section with the given name, height and size.
func addSquare(g *graph.SectionGraph, name string, z, size float64) {
	g.AddSection(&graph.Section{Name: name, Z: z, Polygon: geom.NewPolygon(geom.Square(0, 0, size))})
}

func TestNilGraph(t *testing.T) {
	if res := tessellate.Tessellate(context.Background(), nil, newKernel(), tessellate.DefaultOptions()); res != nil {
		t.Errorf("expected nil results, got %v", res)
	}
}

func TestStack(t *testing.T) {
	g := graph.New()
	addSquare(g, "bottom", 0, 4)
	addSquare(g, "middle", 10, 4)
	addSquare(g, "top", 20, 4)
	g.AddLink("bottom", "middle")
	g.AddLink("middle", "top")
	g.AddLink("top", "middle") // duplicate, reconstructed once

	results := tessellate.Tessellate(context.Background(), g, newKernel(), tessellate.DefaultOptions())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, want := range []string{"bottom-middle", "middle-top"} {
		r := results[i]
		if r.Link.String() != want {
			t.Errorf("result %d is %s, want %s", i, r.Link, want)
		}
		if !r.OK() {
			t.Fatalf("%s failed: %v", r.Link, r.Err)
		}
		if r.Mesh.TriangleCount() != 8 {
			t.Errorf("%s has %d triangles, want 8", r.Link, r.Mesh.TriangleCount())
		}
	}
	if ok, failed := tessellate.Counts(results); ok != 2 || failed != 0 {
		t.Errorf("Counts = %d, %d", ok, failed)
	}
}

func TestFailuresStayLocal(t *testing.T) {
	g := graph.New()
	addSquare(g, "a", 0, 2)
	addSquare(g, "b", 5, 2)
	addSquare(g, "flat", 5, 1)
	g.AddLink("a", "b")
	g.AddLink("b", "flat")    // same level
	g.AddLink("a", "missing") // dangling

	results := tessellate.Tessellate(context.Background(), g, newKernel(), tessellate.Options{Workers: 2})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].OK() {
		t.Errorf("a-b failed: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, bajaj.ErrSameLevel) {
		t.Errorf("b-flat err = %v, want ErrSameLevel", results[1].Err)
	}
	if results[2].Err == nil || results[2].Mesh != nil {
		t.Errorf("a-missing = %+v, want an error and no mesh", results[2])
	}
	if ok, failed := tessellate.Counts(results); ok != 1 || failed != 2 {
		t.Errorf("Counts = %d, %d", ok, failed)
	}
}

func TestCancelledContext(t *testing.T) {
	g := graph.New()
	addSquare(g, "a", 0, 2)
	addSquare(g, "b", 5, 2)
	g.AddLink("a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := tessellate.Tessellate(ctx, g, newKernel(), tessellate.DefaultOptions())
	if len(results) != 1 || !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("results = %+v, want context.Canceled", results)
	}
}

// countingKernel records how many reconstructions run at once.
type countingKernel struct {
	mu       sync.Mutex
	running  int
	peak     int
	finished atomic.Int32
}

func (k *countingKernel) Name() string { return "counting" }

func (k *countingKernel) Reconstruct(ctx context.Context, lower, upper kernel.Section) (*kernel.Mesh, error) {
	k.mu.Lock()
	k.running++
	if k.running > k.peak {
		k.peak = k.running
	}
	k.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	k.mu.Lock()
	k.running--
	k.mu.Unlock()
	k.finished.Add(1)
	return &kernel.Mesh{Name: lower.Name + "-" + upper.Name}, nil
}

func TestWorkerLimit(t *testing.T) {
	g := graph.New()
	for i := 0; i < 10; i++ {
		addSquare(g, string(rune('a'+i)), float64(i), 1)
		if i > 0 {
			g.AddLink(string(rune('a'+i-1)), string(rune('a'+i)))
		}
	}

	k := &countingKernel{}
	results := tessellate.Tessellate(context.Background(), g, k, tessellate.Options{Workers: 3})
	if len(results) != 9 || k.finished.Load() != 9 {
		t.Fatalf("results = %d, finished = %d", len(results), k.finished.Load())
	}
	if k.peak > 3 {
		t.Errorf("peak concurrency %d exceeds 3 workers", k.peak)
	}
	for i, r := range results {
		if r.Mesh.Name != r.Link.String() {
			t.Errorf("result %d holds mesh %q for link %s", i, r.Mesh.Name, r.Link)
		}
	}
}

func TestZeroWorkersStillRuns(t *testing.T) {
	g := graph.New()
	addSquare(g, "a", 0, 1)
	addSquare(g, "b", 1, 1)
	g.AddLink("a", "b")

	k := &countingKernel{}
	results := tessellate.Tessellate(context.Background(), g, k, tessellate.Options{})
	if len(results) != 1 || !results[0].OK() || k.peak != 1 {
		t.Errorf("results = %+v, peak = %d", results, k.peak)
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g := graph.New()
	addSquare(g, "a", 0, 1)
	addSquare(g, "b", 1, 1)
	addSquare(g, "c", 1, 2)
	g.AddLink("a", "b")
	g.AddLink("b", "c")

	opts := tessellate.Options{Workers: 1, Logger: zap.New(core)}
	tessellate.Tessellate(context.Background(), g, newKernel(), opts)

	if n := logs.FilterMessage("link reconstructed").Len(); n != 1 {
		t.Errorf("link reconstructed entries = %d, want 1", n)
	}
	failed := logs.FilterMessage("link failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.WarnLevel {
		t.Fatalf("link failed entries = %v", failed)
	}
	if got := failed[0].ContextMap()["link"]; got != "b-c" {
		t.Errorf("link field = %v", got)
	}
	if got := failed[0].ContextMap()["kernel"]; got != "bajaj" {
		t.Errorf("kernel field = %v", got)
	}
}
