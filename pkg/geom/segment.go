package geom

import "math"

// Segment is the closed line segment between A and B.
type Segment struct {
	A, B Point
}

// Seg is shorthand for Segment{A: a, B: b}.
func Seg(a, b Point) Segment {
	return Segment{A: a, B: b}
}

// IntersectionKind describes how two segments meet.
type IntersectionKind int

const (
	NoIntersection IntersectionKind = iota
	PointIntersection
	OverlapIntersection
)

// String returns the human-readable name of the intersection kind.
func (k IntersectionKind) String() string {
	switch k {
	case NoIntersection:
		return "none"
	case PointIntersection:
		return "point"
	case OverlapIntersection:
		return "overlap"
	default:
		return "unknown"
	}
}

// Intersection is the result of Segment.Intersect. For a point hit only P is
// set. For a collinear overlap P and Q are the ends of the shared stretch,
// both of which are endpoints of one of the two input segments.
type Intersection struct {
	Kind IntersectionKind
	P, Q Point
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return Distance(s.A, s.B)
}

// Midpoint returns the point halfway between A and B.
func (s Segment) Midpoint() Point {
	return Lerp(s.A, s.B, 0.5)
}

// Reverse returns the segment with its endpoints swapped.
func (s Segment) Reverse() Segment {
	return Segment{A: s.B, B: s.A}
}

// IsDegenerate reports whether both endpoints coincide.
func (s Segment) IsDegenerate() bool {
	return s.A == s.B
}

// HasEndpoint reports whether p is exactly one of the segment's endpoints.
func (s Segment) HasEndpoint(p Point) bool {
	return s.A == p || s.B == p
}

// ContainsPoint reports whether p lies on the closed segment.
func (s Segment) ContainsPoint(p Point) bool {
	if Orient(s.A, s.B, p) != 0 {
		return false
	}
	return inBox(s, p)
}

// inBox reports whether p lies in the bounding box of s. Callers have
// already established collinearity.
func inBox(s Segment, p Point) bool {
	return p.X >= math.Min(s.A.X, s.B.X) && p.X <= math.Max(s.A.X, s.B.X) &&
		p.Y >= math.Min(s.A.Y, s.B.Y) && p.Y <= math.Max(s.A.Y, s.B.Y)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Intersect computes where s and o meet. Touching configurations return the
// exact endpoint that touches; proper crossings return a computed point.
func (s Segment) Intersect(o Segment) Intersection {
	d1 := sign(Orient(o.A, o.B, s.A))
	d2 := sign(Orient(o.A, o.B, s.B))
	d3 := sign(Orient(s.A, s.B, o.A))
	d4 := sign(Orient(s.A, s.B, o.B))

	if d1 == 0 && d2 == 0 && d3 == 0 && d4 == 0 {
		return s.collinear(o)
	}

	if d1*d2 < 0 && d3*d4 < 0 {
		a1 := Orient(o.A, o.B, s.A)
		a2 := Orient(o.A, o.B, s.B)
		t := a1 / (a1 - a2)
		return Intersection{Kind: PointIntersection, P: Lerp(s.A, s.B, t)}
	}

	switch {
	case d1 == 0 && inBox(o, s.A):
		return Intersection{Kind: PointIntersection, P: s.A}
	case d2 == 0 && inBox(o, s.B):
		return Intersection{Kind: PointIntersection, P: s.B}
	case d3 == 0 && inBox(s, o.A):
		return Intersection{Kind: PointIntersection, P: o.A}
	case d4 == 0 && inBox(s, o.B):
		return Intersection{Kind: PointIntersection, P: o.B}
	}
	return Intersection{Kind: NoIntersection}
}

// collinear handles two segments lying on the same line.
func (s Segment) collinear(o Segment) Intersection {
	if s.IsDegenerate() && o.IsDegenerate() {
		if s.A == o.A {
			return Intersection{Kind: PointIntersection, P: s.A}
		}
		return Intersection{Kind: NoIntersection}
	}

	// Parameterise along the dominant axis of the longer segment.
	ref := s
	if o.Length() > s.Length() {
		ref = o
	}
	useX := math.Abs(ref.B.X-ref.A.X) >= math.Abs(ref.B.Y-ref.A.Y)
	key := func(p Point) float64 {
		if useX {
			return p.X
		}
		return p.Y
	}

	sLo, sHi := s.A, s.B
	if key(sLo) > key(sHi) {
		sLo, sHi = sHi, sLo
	}
	oLo, oHi := o.A, o.B
	if key(oLo) > key(oHi) {
		oLo, oHi = oHi, oLo
	}

	lo := sLo
	if key(oLo) > key(lo) {
		lo = oLo
	}
	hi := sHi
	if key(oHi) < key(hi) {
		hi = oHi
	}

	switch {
	case key(lo) > key(hi):
		return Intersection{Kind: NoIntersection}
	case key(lo) == key(hi):
		return Intersection{Kind: PointIntersection, P: lo}
	default:
		return Intersection{Kind: OverlapIntersection, P: lo, Q: hi}
	}
}

// ProperlyCrosses reports whether the interiors of s and o cross at a single
// point that is not an endpoint of either segment.
func (s Segment) ProperlyCrosses(o Segment) bool {
	d1 := sign(Orient(o.A, o.B, s.A))
	d2 := sign(Orient(o.A, o.B, s.B))
	d3 := sign(Orient(s.A, s.B, o.A))
	d4 := sign(Orient(s.A, s.B, o.B))
	return d1*d2 < 0 && d3*d4 < 0
}

// InteriorContains reports whether p lies on s but is not one of its
// endpoints.
func (s Segment) InteriorContains(p Point) bool {
	return !s.HasEndpoint(p) && s.ContainsPoint(p)
}
