package triangulate

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/chazu/morphmesh/pkg/geom"
)

func triArea(t *Triangulation, tri [3]int) float64 {
	return geom.Orient(t.Points[tri[0]], t.Points[tri[1]], t.Points[tri[2]]) / 2
}

func indexOf(t *Triangulation, p geom.Point) int {
	for i, q := range t.Points {
		if q == p {
			return i
		}
	}
	return -1
}

func TestTriangulate_Square(t *testing.T) {
	sq := geom.Square(0, 0, 2)
	tr, err := Triangulate(sq, sq.Segments())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if len(tr.Triangles) != 2 {
		t.Fatalf("got %d triangles, want 2", len(tr.Triangles))
	}
	var area float64
	for _, tri := range tr.Triangles {
		a := triArea(tr, tri)
		if a <= 0 {
			t.Errorf("triangle %v is not counter-clockwise", tri)
		}
		area += a
	}
	if area != 4 {
		t.Errorf("total area = %v, want 4", area)
	}
	for i := range sq {
		if !tr.Constraints[MakeEdge(i, (i+1)%4)] {
			t.Errorf("side %d not constrained", i)
		}
	}
}

func TestTriangulate_DuplicatesMerged(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 1), geom.Pt(1, 0)}
	tr, err := Triangulate(pts, nil)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if len(tr.Points) != 3 {
		t.Errorf("got %d points, want 3", len(tr.Points))
	}
	if i := indexOf(tr, geom.Pt(0, 1)); i != 2 {
		t.Errorf("index of (0,1) = %d, want 2", i)
	}
}

func TestTriangulate_RecoversNonDelaunayConstraint(t *testing.T) {
	// Unconstrained, the short diagonal (5,1)-(5,-1) wins.
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(5, 1), geom.Pt(5, -1)}

	free, err := Triangulate(pts, nil)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if _, ok := free.Edges()[MakeEdge(2, 3)]; !ok {
		t.Fatal("unconstrained triangulation should use the short diagonal")
	}

	tr, err := Triangulate(pts, []geom.Segment{geom.Seg(pts[0], pts[1])})
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	edges := tr.Edges()
	if _, ok := edges[MakeEdge(0, 1)]; !ok {
		t.Fatal("constraint edge missing")
	}
	if _, ok := edges[MakeEdge(2, 3)]; ok {
		t.Error("crossing diagonal should have been removed")
	}
	if len(tr.Triangles) != 2 {
		t.Errorf("got %d triangles, want 2", len(tr.Triangles))
	}
	for _, tri := range tr.Triangles {
		if triArea(tr, tri) <= 0 {
			t.Errorf("triangle %v is not counter-clockwise", tri)
		}
	}
}

func TestTriangulate_Failures(t *testing.T) {
	tests := []struct {
		name        string
		pts         []geom.Point
		constraints []geom.Segment
	}{
		{
			name: "crossing constraints",
			pts:  []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(5, 1), geom.Pt(5, -1)},
			constraints: []geom.Segment{
				geom.Seg(geom.Pt(0, 0), geom.Pt(10, 0)),
				geom.Seg(geom.Pt(5, 1), geom.Pt(5, -1)),
			},
		},
		{
			name:        "point on constraint",
			pts:         []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(5, 0), geom.Pt(5, 5)},
			constraints: []geom.Segment{geom.Seg(geom.Pt(0, 0), geom.Pt(10, 0))},
		},
		{
			name: "non-finite point",
			pts:  []geom.Point{geom.Pt(0, 0), geom.Pt(math.NaN(), 0), geom.Pt(0, 1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Triangulate(tt.pts, tt.constraints)
			if !errors.Is(err, ErrTriangulationFailed) {
				t.Errorf("err = %v, want ErrTriangulationFailed", err)
			}
		})
	}
}

func TestTriangulate_RandomIsDelaunay(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for round := 0; round < 20; round++ {
		pts := make([]geom.Point, 30)
		for i := range pts {
			pts[i] = geom.Pt(rng.Float64()*100, rng.Float64()*100)
		}
		tr, err := Triangulate(pts, nil)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		for _, tri := range tr.Triangles {
			if triArea(tr, tri) <= 0 {
				t.Fatalf("round %d: triangle %v not counter-clockwise", round, tri)
			}
			a, b, c := tr.Points[tri[0]], tr.Points[tri[1]], tr.Points[tri[2]]
			for k, p := range tr.Points {
				if k == tri[0] || k == tri[1] || k == tri[2] {
					continue
				}
				if geom.InCircle(a, b, c, p) > 1e-6 {
					t.Fatalf("round %d: point %d inside circumcircle of %v", round, k, tri)
				}
			}
		}
	}
}

// refinedStar returns a star-shaped ring with an extra point on every side,
// the way augmentation splits a ring where another one crosses it.
func refinedStar(rng *rand.Rand, n int) geom.Ring {
	star := make(geom.Ring, n)
	for i := range star {
		a := 2 * math.Pi * (float64(i) + 0.8*rng.Float64()) / float64(n)
		r := 2 * (0.4 + rng.Float64())
		star[i] = geom.Pt(r*math.Cos(a), r*math.Sin(a))
	}
	var out geom.Ring
	for i := range star {
		out = append(out, star[i], geom.Lerp(star[i], star.At(i+1), 0.1+0.8*rng.Float64()))
	}
	return out
}

func TestTriangulate_PointsOnEdges(t *testing.T) {
	for seed := int64(0); seed < 300; seed++ {
		rng := rand.New(rand.NewSource(seed))
		ring := refinedStar(rng, 5+rng.Intn(8))
		if _, err := Triangulate(ring, nil); err != nil {
			t.Fatalf("seed %d unconstrained: %v", seed, err)
		}
		if _, err := Triangulate(ring, ring.Segments()); err != nil {
			t.Fatalf("seed %d constrained: %v", seed, err)
		}
	}
}

func TestTriangulate_Deterministic(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		ring := refinedStar(rng, 8)
		first, err := Triangulate(ring, ring.Segments())
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for run := 0; run < 3; run++ {
			again, err := Triangulate(ring, ring.Segments())
			if err != nil {
				t.Fatalf("seed %d: %v", seed, err)
			}
			if !reflect.DeepEqual(first.Triangles, again.Triangles) {
				t.Fatalf("seed %d: triangle order changed between runs", seed)
			}
		}
	}
}

func TestTriangulate_RandomConstraintsHonoured(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 20; round++ {
		// A star polygon's sides never cross each other.
		n := 12
		ring := make(geom.Ring, n)
		for i := range ring {
			theta := 2 * math.Pi * (float64(i) + 0.5*rng.Float64()) / float64(n)
			r := 2 + 8*rng.Float64()
			ring[i] = geom.Pt(r*math.Cos(theta), r*math.Sin(theta))
		}
		var extra []geom.Point
		for i := 0; i < 15; i++ {
			extra = append(extra, geom.Pt(rng.Float64()*30-15, rng.Float64()*30-15))
		}
		tr, err := Triangulate(append(ring.Clone(), extra...), ring.Segments())
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		edges := tr.Edges()
		for i := range ring {
			a, b := indexOf(tr, ring.At(i)), indexOf(tr, ring.At(i+1))
			if _, ok := edges[MakeEdge(a, b)]; !ok {
				t.Fatalf("round %d: side %d missing", round, i)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	sq := geom.Square(0, 0, 2)
	tr, err := Triangulate(sq, sq.Segments())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	contour := func(a, b geom.Point) bool {
		ia, ib := sq.IndexOf(a), sq.IndexOf(b)
		d := ia - ib
		return d == 1 || d == -1 || d == 3 || d == -3
	}
	edges := Classify(tr, contour)
	var nContour, nDelaunay int
	for _, e := range edges {
		switch e.Class {
		case ClassContour:
			nContour++
			if len(e.Triangles) != 1 {
				t.Errorf("hull edge %v has %d triangles", e.Edge, len(e.Triangles))
			}
		case ClassDelaunay:
			nDelaunay++
			if len(e.Triangles) != 2 {
				t.Errorf("diagonal %v has %d triangles", e.Edge, len(e.Triangles))
			}
		}
	}
	if nContour != 4 || nDelaunay != 1 {
		t.Errorf("contour=%d delaunay=%d, want 4/1", nContour, nDelaunay)
	}
}

func TestFillPolygon(t *testing.T) {
	tests := []struct {
		name string
		ring geom.Ring
		want int
	}{
		{"triangle", geom.Ring{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 1)}, 1},
		{"L shape", geom.Ring{
			geom.Pt(0, 0), geom.Pt(4, 0), geom.Pt(4, 1),
			geom.Pt(1, 1), geom.Pt(1, 4), geom.Pt(0, 4),
		}, 4},
		{"clockwise comb", geom.Ring{
			geom.Pt(0, 0), geom.Pt(0, 3), geom.Pt(1, 3), geom.Pt(1, 1),
			geom.Pt(2, 1), geom.Pt(2, 3), geom.Pt(3, 3), geom.Pt(3, 0),
		}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := FillPolygon(tt.ring)
			if err != nil {
				t.Fatalf("FillPolygon: %v", err)
			}
			if len(tris) != tt.want {
				t.Fatalf("got %d triangles, want %d", len(tris), tt.want)
			}
			var area float64
			for _, tri := range tris {
				area += geom.Orient(tt.ring[tri[0]], tt.ring[tri[1]], tt.ring[tri[2]]) / 2
			}
			if math.Abs(area-math.Abs(tt.ring.SignedArea())) > 1e-9 {
				t.Errorf("area = %v, want %v", area, math.Abs(tt.ring.SignedArea()))
			}
		})
	}
}

func TestFillPolygon_RejectsBadRings(t *testing.T) {
	bowtie := geom.Ring{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(1, 0), geom.Pt(0, 1)}
	if _, err := FillPolygon(bowtie); !errors.Is(err, ErrTriangulationFailed) {
		t.Errorf("bowtie err = %v", err)
	}
	if _, err := FillPolygon(geom.Ring{geom.Pt(0, 0), geom.Pt(1, 0)}); err == nil {
		t.Error("expected error for two-point ring")
	}
}
