package kernel

import (
	"context"
	"testing"

	"github.com/chazu/morphmesh/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float64
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float64{1, 2, 3}, 1},
		{"four vertices", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshBoundingBox(t *testing.T) {
	m := &Mesh{Vertices: []float64{-1, 2, 0, 3, -4, 5, 0, 0, 1}}
	min, max := m.BoundingBox()
	if min != [3]float64{-1, -4, 0} {
		t.Errorf("min = %v", min)
	}
	if max != [3]float64{3, 2, 5} {
		t.Errorf("max = %v", max)
	}
	if got := m.Vertex(1); got != [3]float64{3, -4, 5} {
		t.Errorf("Vertex(1) = %v", got)
	}
}

func TestMeshEdgeCounts(t *testing.T) {
	m := &Mesh{Edges: []EdgeRecord{
		{A: 0, B: 1, Type: "contour", Faces: 1},
		{A: 1, B: 2, Type: "contour", Faces: 1},
		{A: 0, B: 2, Type: "corresponding", Faces: 2},
	}}
	got := m.EdgeCounts()
	if got["contour"] != 2 || got["corresponding"] != 1 {
		t.Errorf("EdgeCounts() = %v", got)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubKernel returns one flat triangle built from the lower exterior.
type stubKernel struct{}

func (k *stubKernel) Name() string { return "stub" }

func (k *stubKernel) Reconstruct(ctx context.Context, lower, _ Section) (*Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &Mesh{Name: lower.Name}
	for _, p := range lower.Polygon.Exterior[:3] {
		m.Vertices = append(m.Vertices, p.X, p.Y, lower.Z)
	}
	m.Indices = []uint32{0, 1, 2}
	return m, nil
}

var _ Kernel = (*stubKernel)(nil)

func TestStubKernelReconstruct(t *testing.T) {
	var k Kernel = &stubKernel{}
	lower := Section{Name: "a", Z: 2, Polygon: geom.NewPolygon(geom.Square(0, 0, 2))}
	m, err := k.Reconstruct(context.Background(), lower, Section{})
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if m.TriangleCount() != 1 || m.Name != "a" {
		t.Errorf("got %d triangles named %q", m.TriangleCount(), m.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := k.Reconstruct(ctx, lower, Section{}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
