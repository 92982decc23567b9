package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/morphmesh/pkg/kernel"
)

// tetra is a unit tetrahedron wound outward.
func tetra() *kernel.Mesh {
	return &kernel.Mesh{
		Name:     "tetra",
		Vertices: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:  []uint32{0, 2, 1, 0, 1, 3, 1, 2, 3, 0, 3, 2},
	}
}

func TestToTriangles(t *testing.T) {
	tris := ToTriangles(tetra())
	if len(tris) != 4 {
		t.Fatalf("got %d triangles, want 4", len(tris))
	}
	if tris[1][2].Z != 1 {
		t.Errorf("triangle 1 vertex 2 = %v, want z=1", tris[1][2])
	}
}

func TestNormalsPointOutward(t *testing.T) {
	m := tetra()
	// The centroid of the tetrahedron is inside; every normal must face away.
	c := [3]float64{0.25, 0.25, 0.25}
	for i, n := range Normals(m) {
		p := m.Vertex(m.Triangle(i)[0])
		d := (p[0]-c[0])*n.X + (p[1]-c[1])*n.Y + (p[2]-c[2])*n.Z
		if d <= 0 {
			t.Errorf("triangle %d normal %v points inward", i, n)
		}
		if math.Abs(n.Length()-1) > 1e-9 {
			t.Errorf("triangle %d normal not unit length", i)
		}
	}
}

func TestSaveSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetra.stl")
	if err := SaveSTL(path, tetra()); err != nil {
		t.Fatalf("SaveSTL: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("STL file is empty")
	}
}

func TestSaveSTLRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.stl")
	if err := SaveSTL(path, &kernel.Mesh{}); err == nil {
		t.Error("expected error for empty mesh")
	}
}
