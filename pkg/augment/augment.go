// Package augment inserts the intersection points of two polygons into both
// of them, so that afterwards their boundaries only ever meet at shared
// vertices.
package augment

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/chazu/morphmesh/pkg/geom"
)

// ErrUnresolved is returned by Verify when two boundaries still meet away
// from a shared vertex.
var ErrUnresolved = errors.New("augment: unresolved intersection")

// splitSet collects the points to insert into each segment of each ring.
// Keyed by ring index then segment index.
type splitSet map[int]map[int][]geom.Point

func (s splitSet) add(ring, seg int, pts ...geom.Point) {
	if s[ring] == nil {
		s[ring] = make(map[int][]geom.Point)
	}
	s[ring][seg] = append(s[ring][seg], pts...)
}

// AddPointsAtIntersections returns copies of a and b in which every crossing,
// T-junction and collinear-overlap endpoint between a boundary of a and a
// boundary of b is a vertex of both. Ring order and closure are preserved.
// Self-intersections within a single polygon are not resolved.
func AddPointsAtIntersections(a, b geom.Polygon) (geom.Polygon, geom.Polygon) {
	ringsA := a.Rings()
	ringsB := b.Rings()
	splitsA := make(splitSet)
	splitsB := make(splitSet)

	for ia, ra := range ringsA {
		for sa := range ra {
			segA := ra.Segment(sa)
			boxA := segBounds(segA)
			for ib, rb := range ringsB {
				for sb := range rb {
					segB := rb.Segment(sb)
					if !boxA.Intersects(segBounds(segB)) {
						continue
					}
					hit := segA.Intersect(segB)
					switch hit.Kind {
					case geom.PointIntersection:
						splitsA.add(ia, sa, hit.P)
						splitsB.add(ib, sb, hit.P)
					case geom.OverlapIntersection:
						splitsA.add(ia, sa, hit.P, hit.Q)
						splitsB.add(ib, sb, hit.P, hit.Q)
					}
				}
			}
		}
	}

	return applySplits(a, splitsA), applySplits(b, splitsB)
}

func applySplits(p geom.Polygon, splits splitSet) geom.Polygon {
	rings := p.Rings()
	out := make([]geom.Ring, len(rings))
	for i, r := range rings {
		out[i] = splitRing(r, splits[i])
	}
	return geom.Polygon{Exterior: out[0], Holes: out[1:]}
}

func splitRing(r geom.Ring, splits map[int][]geom.Point) geom.Ring {
	if len(splits) == 0 {
		return r.Clone()
	}
	out := make(geom.Ring, 0, len(r)+len(splits))
	for i := range r {
		seg := r.Segment(i)
		out = append(out, seg.A)
		pts := lo.Uniq(lo.Filter(splits[i], func(p geom.Point, _ int) bool {
			return !seg.HasEndpoint(p)
		}))
		sort.Slice(pts, func(x, y int) bool {
			return geom.Distance(seg.A, pts[x]) < geom.Distance(seg.A, pts[y])
		})
		out = append(out, pts...)
	}
	return out
}

// Unresolved returns every location where a boundary segment of a meets a
// boundary segment of b somewhere other than a vertex common to both.
func Unresolved(a, b geom.Polygon) []geom.Point {
	var bad []geom.Point
	for _, ra := range a.Rings() {
		for _, segA := range ra.Segments() {
			for _, rb := range b.Rings() {
				for _, segB := range rb.Segments() {
					hit := segA.Intersect(segB)
					switch hit.Kind {
					case geom.PointIntersection:
						if !segA.HasEndpoint(hit.P) || !segB.HasEndpoint(hit.P) {
							bad = append(bad, hit.P)
						}
					case geom.OverlapIntersection:
						for _, q := range []geom.Point{hit.P, hit.Q} {
							if !segA.HasEndpoint(q) || !segB.HasEndpoint(q) {
								bad = append(bad, q)
							}
						}
					}
				}
			}
		}
	}
	return lo.Uniq(bad)
}

// Verify checks that a and b are fully augmented against each other.
func Verify(a, b geom.Polygon) error {
	bad := Unresolved(a, b)
	if len(bad) == 0 {
		return nil
	}
	return errors.Wrapf(ErrUnresolved, "%d location(s), first at (%g, %g)", len(bad), bad[0].X, bad[0].Y)
}

func segBounds(s geom.Segment) r2.Rect {
	return geom.Ring{s.A, s.B}.Bounds()
}
