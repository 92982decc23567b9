package triangulate

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/chazu/morphmesh/pkg/geom"
)

// EdgeClass tags an edge of a triangulation.
type EdgeClass int

const (
	ClassDelaunay EdgeClass = iota
	ClassContour
)

// String returns the human-readable name of the class.
func (c EdgeClass) String() string {
	switch c {
	case ClassDelaunay:
		return "delaunay"
	case ClassContour:
		return "contour"
	default:
		return "unknown"
	}
}

// ClassifiedEdge is an edge of a triangulation with its class and the
// triangles on each side.
type ClassifiedEdge struct {
	Edge      Edge
	Class     EdgeClass
	Triangles []int
}

// Classify tags each edge of t as contour when isContour accepts its two
// endpoints, and Delaunay otherwise. Edges are returned in ascending order.
func Classify(t *Triangulation, isContour func(a, b geom.Point) bool) []ClassifiedEdge {
	edges := t.Edges()
	keys := make([]Edge, 0, len(edges))
	for e := range edges {
		keys = append(keys, e)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	out := make([]ClassifiedEdge, 0, len(keys))
	for _, e := range keys {
		class := ClassDelaunay
		if isContour(t.Points[e[0]], t.Points[e[1]]) {
			class = ClassContour
		}
		out = append(out, ClassifiedEdge{Edge: e, Class: class, Triangles: edges[e]})
	}
	return out
}

// FillPolygon triangulates the interior of a simple ring. The returned
// triangles index into ring and wind counter-clockwise in the plane. Rings
// with repeated points or self-intersections are rejected.
func FillPolygon(ring geom.Ring) ([][3]int, error) {
	if len(ring) < 3 {
		return nil, errors.Wrapf(ErrTriangulationFailed, "ring has %d points", len(ring))
	}
	if !ring.IsSimple() {
		return nil, errors.Wrap(ErrTriangulationFailed, "ring is not simple")
	}
	if ring.SignedArea() == 0 {
		return nil, errors.Wrap(ErrTriangulationFailed, "ring has zero area")
	}

	t, err := Triangulate(ring, ring.Segments())
	if err != nil {
		return nil, err
	}
	if len(t.Points) != len(ring) {
		return nil, errors.Wrap(ErrTriangulationFailed, "ring has repeated points")
	}

	out := make([][3]int, 0, len(ring)-2)
	for ti, tri := range t.Triangles {
		if !ring.ContainsPoint(t.Centroid(ti)) {
			continue
		}
		// Points were added in ring order, so indices coincide.
		out = append(out, tri)
	}
	if len(out) != len(ring)-2 {
		return nil, errors.Wrapf(ErrTriangulationFailed, "fill produced %d triangles for %d points", len(out), len(ring))
	}
	return out, nil
}
