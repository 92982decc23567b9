package bajaj

import (
	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/mesh"
	"github.com/chazu/morphmesh/pkg/triangulate"
)

// zone says which of the two polygons a planar triangle lies in.
type zone int

const (
	zoneNone zone = iota
	zoneBoth
	zoneLower // inside the lower polygon only
	zoneUpper // inside the upper polygon only
)

// wall reports whether triangles in the zone belong to the side wall.
func (z zone) wall() bool {
	return z == zoneLower || z == zoneUpper
}

// native is the level a zone's triangles fall back to where the two contours
// around a shared vertex disagree.
func (z zone) native() mesh.Level {
	if z == zoneLower {
		return mesh.Lower
	}
	return mesh.Upper
}

// segKey is an undirected planar segment.
type segKey [2]geom.Point

func keyOf(p, q geom.Point) segKey {
	if geom.Less(q, p) {
		p, q = q, p
	}
	return segKey{p, q}
}

// contourLevel returns the level at which the segment p-q is a contour as
// seen from a triangle in zone z. A segment on both polygons is seen at the
// level of the polygon the zone lies in.
func (b *builder) contourLevel(p, q geom.Point, z zone) (mesh.Level, bool) {
	k := keyOf(p, q)
	onLower, onUpper := b.lowerSegs[k], b.upperSegs[k]
	switch {
	case onLower && onUpper:
		return z.native(), true
	case onLower:
		return mesh.Lower, true
	case onUpper:
		return mesh.Upper, true
	default:
		return 0, false
	}
}

// copyAt returns the vertex for p on the given level.
func (b *builder) copyAt(p geom.Point, level mesh.Level) (mesh.VertexID, bool) {
	if level == mesh.Lower {
		v, ok := b.lowerVerts[p]
		return v, ok
	}
	v, ok := b.upperVerts[p]
	return v, ok
}

// lift picks the vertex copy for every corner of every wall triangle. A point
// on only one polygon has one copy. A point on both takes the level of the
// contours bounding the triangle's wedge around it, or the zone's native level
// when the two bounding contours disagree.
func (b *builder) lift() {
	b.copies = make([][3]mesh.VertexID, len(b.cdt.Triangles))
	for ti, tri := range b.cdt.Triangles {
		z := b.zones[ti]
		if !z.wall() {
			continue
		}
		for k, pi := range tri {
			p := b.cdt.Points[pi]
			lower, hasLower := b.lowerVerts[p]
			upper, hasUpper := b.upperVerts[p]
			switch {
			case !hasUpper:
				b.copies[ti][k] = lower
				continue
			case !hasLower:
				b.copies[ti][k] = upper
				continue
			}
			l1, ok1 := b.sweep(ti, pi, tri[(k+1)%3], z)
			l2, ok2 := b.sweep(ti, pi, tri[(k+2)%3], z)
			level := z.native()
			switch {
			case ok1 && ok2 && l1 == l2:
				level = l1
			case ok1 && !ok2:
				level = l1
			case ok2 && !ok1:
				level = l2
			}
			if level == mesh.Lower {
				b.copies[ti][k] = lower
			} else {
				b.copies[ti][k] = upper
			}
		}
	}
}

// sweep rotates around point p starting at the edge p-q of triangle ti,
// crossing non-contour edges, until it reaches a contour edge. It returns
// that contour's level as seen from zone z, or false at the hull.
func (b *builder) sweep(ti, p, q int, z zone) (mesh.Level, bool) {
	cur, next := ti, q
	for range b.cdt.Triangles {
		if level, ok := b.contourLevel(b.cdt.Points[p], b.cdt.Points[next], z); ok {
			return level, true
		}
		other := b.across(triangulate.MakeEdge(p, next), cur)
		if other < 0 {
			return 0, false
		}
		cur, next = other, third(b.cdt.Triangles[other], p, next)
	}
	return 0, false
}

// across returns the triangle on the other side of e from ti, or -1.
func (b *builder) across(e triangulate.Edge, ti int) int {
	for _, t := range b.adj[e] {
		if t != ti {
			return t
		}
	}
	return -1
}

func third(tri [3]int, a, c int) int {
	for _, v := range tri {
		if v != a && v != c {
			return v
		}
	}
	return -1
}

// winding returns the corner order of a wall triangle on the lifted surface:
// planar counter-clockwise for the lower zone, reversed for the upper zone.
func (b *builder) winding(ti int) [3]int {
	if b.zones[ti] == zoneUpper {
		return [3]int{0, 2, 1}
	}
	return [3]int{0, 1, 2}
}

// spans reports whether the lifted triangle touches both levels.
func (b *builder) spans(ti int) bool {
	c := b.copies[ti]
	l0 := b.m.Vertex(c[0]).Level
	return b.m.Vertex(c[1]).Level != l0 || b.m.Vertex(c[2]).Level != l0
}

// copyOf returns the copy triangle ti chose for CDT point pi.
func (b *builder) copyOf(ti, pi int) mesh.VertexID {
	for k, v := range b.cdt.Triangles[ti] {
		if v == pi {
			return b.copies[ti][k]
		}
	}
	return mesh.None
}
