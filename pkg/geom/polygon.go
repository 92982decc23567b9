package geom

import (
	"github.com/golang/geo/r2"
)

// Ring is a closed loop of points. The closing point is implicit: the last
// point connects back to the first.
type Ring []Point

// Len returns the number of points in the ring.
func (r Ring) Len() int { return len(r) }

// At returns the point at index i, wrapping around in both directions.
func (r Ring) At(i int) Point {
	n := len(r)
	return r[((i%n)+n)%n]
}

// Segment returns the edge leaving point i.
func (r Ring) Segment(i int) Segment {
	return Segment{A: r.At(i), B: r.At(i + 1)}
}

// Segments returns every edge of the ring in order.
func (r Ring) Segments() []Segment {
	segs := make([]Segment, len(r))
	for i := range r {
		segs[i] = r.Segment(i)
	}
	return segs
}

// SignedArea returns the shoelace area: positive for counter-clockwise rings.
func (r Ring) SignedArea() float64 {
	var sum float64
	for i := range r {
		a, b := r[i], r.At(i+1)
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// IsCCW reports whether the ring winds counter-clockwise.
func (r Ring) IsCCW() bool {
	return r.SignedArea() > 0
}

// Perimeter returns the total edge length.
func (r Ring) Perimeter() float64 {
	var sum float64
	for i := range r {
		sum += Distance(r[i], r.At(i+1))
	}
	return sum
}

// Reverse returns a copy of the ring with opposite winding.
func (r Ring) Reverse() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Clone returns an independent copy of the ring.
func (r Ring) Clone() Ring {
	return append(Ring(nil), r...)
}

// Clean drops consecutive duplicate points, including a repeated closing
// point.
func (r Ring) Clean() Ring {
	out := make(Ring, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// IndexOf returns the index of the first point equal to p, or -1.
func (r Ring) IndexOf(p Point) int {
	for i, q := range r {
		if q == p {
			return i
		}
	}
	return -1
}

// Centroid returns the area centroid. Rings with zero area fall back to the
// vertex average.
func (r Ring) Centroid() Point {
	if len(r) == 0 {
		return Point{}
	}
	var cx, cy, a float64
	for i := range r {
		p, q := r[i], r.At(i+1)
		cross := p.X*q.Y - q.X*p.Y
		a += cross
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	if a == 0 {
		var sum Point
		for _, p := range r {
			sum = sum.Add(p)
		}
		return sum.MulScalar(1 / float64(len(r)))
	}
	return Point{X: cx / (3 * a), Y: cy / (3 * a)}
}

// Bounds returns the axis-aligned bounding box of the ring.
func (r Ring) Bounds() r2.Rect {
	rect := r2.EmptyRect()
	for _, p := range r {
		rect = rect.AddPoint(r2.Point{X: p.X, Y: p.Y})
	}
	return rect
}

// ContainsPoint reports whether p is inside the ring by the even-odd rule.
// Points exactly on the boundary may land on either side.
func (r Ring) ContainsPoint(p Point) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// OnBoundary reports whether p lies on one of the ring's edges.
func (r Ring) OnBoundary(p Point) bool {
	for i := range r {
		if r.Segment(i).ContainsPoint(p) {
			return true
		}
	}
	return false
}

// IsSimple reports whether the ring has at least three points and no two
// edges meet except consecutive edges at their shared endpoint.
func (r Ring) IsSimple() bool {
	n := len(r)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		si := r.Segment(i)
		if si.IsDegenerate() {
			return false
		}
		for j := i + 1; j < n; j++ {
			sj := r.Segment(j)
			hit := si.Intersect(sj)
			if hit.Kind == NoIntersection {
				continue
			}
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if !adjacent || hit.Kind == OverlapIntersection {
				return false
			}
			shared := si.B
			if j != i+1 {
				shared = si.A
			}
			if hit.P != shared {
				return false
			}
		}
	}
	return true
}

// Polygon is an exterior ring with zero or more holes.
type Polygon struct {
	Exterior Ring   `json:"exterior"`
	Holes    []Ring `json:"holes,omitempty"`
}

// NewPolygon builds a polygon from an exterior ring and optional holes.
func NewPolygon(exterior Ring, holes ...Ring) Polygon {
	return Polygon{Exterior: exterior, Holes: holes}
}

// Rings returns the exterior followed by every hole.
func (p Polygon) Rings() []Ring {
	rings := make([]Ring, 0, 1+len(p.Holes))
	rings = append(rings, p.Exterior)
	return append(rings, p.Holes...)
}

// PointCount returns the total number of points over all rings.
func (p Polygon) PointCount() int {
	n := len(p.Exterior)
	for _, h := range p.Holes {
		n += len(h)
	}
	return n
}

// IsEmpty reports whether the polygon has no exterior.
func (p Polygon) IsEmpty() bool {
	return len(p.Exterior) == 0
}

// Normalize cleans every ring and orients the exterior counter-clockwise and
// holes clockwise.
func (p Polygon) Normalize() Polygon {
	ext := p.Exterior.Clean()
	if ext.SignedArea() < 0 {
		ext = ext.Reverse()
	}
	out := Polygon{Exterior: ext}
	for _, h := range p.Holes {
		h = h.Clean()
		if h.SignedArea() > 0 {
			h = h.Reverse()
		}
		out.Holes = append(out.Holes, h)
	}
	return out
}

// Clone returns a deep copy of the polygon.
func (p Polygon) Clone() Polygon {
	out := Polygon{Exterior: p.Exterior.Clone()}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, h.Clone())
	}
	return out
}

// Area returns the exterior area minus the hole areas.
func (p Polygon) Area() float64 {
	a := abs(p.Exterior.SignedArea())
	for _, h := range p.Holes {
		a -= abs(h.SignedArea())
	}
	return a
}

// ContainsPoint reports whether pt lies inside the exterior and outside
// every hole.
func (p Polygon) ContainsPoint(pt Point) bool {
	if !p.Exterior.ContainsPoint(pt) {
		return false
	}
	for _, h := range p.Holes {
		if h.ContainsPoint(pt) {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of the exterior ring.
func (p Polygon) Bounds() r2.Rect {
	return p.Exterior.Bounds()
}

// Centroid returns the area centroid with holes subtracted.
func (p Polygon) Centroid() Point {
	extArea := abs(p.Exterior.SignedArea())
	if len(p.Holes) == 0 || extArea == 0 {
		return p.Exterior.Centroid()
	}
	sum := p.Exterior.Centroid().MulScalar(extArea)
	total := extArea
	for _, h := range p.Holes {
		ha := abs(h.SignedArea())
		sum = sum.Sub(h.Centroid().MulScalar(ha))
		total -= ha
	}
	if total <= 0 {
		return p.Exterior.Centroid()
	}
	return sum.MulScalar(1 / total)
}

// Translate returns the polygon shifted by d.
func (p Polygon) Translate(d Point) Polygon {
	shift := func(r Ring) Ring {
		out := make(Ring, len(r))
		for i, q := range r {
			out[i] = q.Add(d)
		}
		return out
	}
	out := Polygon{Exterior: shift(p.Exterior)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, shift(h))
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Square returns the axis-aligned counter-clockwise square ring centered at
// (cx, cy) with the given side length.
func Square(cx, cy, size float64) Ring {
	h := size / 2
	return Ring{
		{X: cx - h, Y: cy - h},
		{X: cx + h, Y: cy - h},
		{X: cx + h, Y: cy + h},
		{X: cx - h, Y: cy + h},
	}
}
