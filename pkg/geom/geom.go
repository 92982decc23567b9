// Package geom provides the planar primitives shared by every stage of
// reconstruction: points, segments, circles, rings and polygons with holes.
//
// Points are compared with exact equality. Augmentation inserts the same
// float64 value into every ring that passes through a location, so two
// occurrences of a shared point are always bit-identical.
package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Point is a position in the section plane.
type Point = v2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Orient returns twice the signed area of triangle abc. It is positive when
// abc turns counter-clockwise, negative when clockwise and zero when the
// three points are collinear.
//
// The determinant is always evaluated on the points in sorted order and the
// sign fixed up afterwards, so every permutation of the same three points
// rounds identically: Orient(a, b, c) == -Orient(b, a, c) exactly.
func Orient(a, b, c Point) float64 {
	sign := 1.0
	if Less(b, a) {
		a, b = b, a
		sign = -sign
	}
	if Less(c, b) {
		b, c = c, b
		sign = -sign
	}
	if Less(b, a) {
		a, b = b, a
		sign = -sign
	}
	return sign * ((b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X))
}

// InCircle is positive when d lies strictly inside the circumcircle of the
// counter-clockwise triangle abc, negative outside and zero on the circle.
func InCircle(a, b, c, d Point) float64 {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y
	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy
	return adx*(bdy*cd-bd*cdy) - ady*(bdx*cd-bd*cdx) + ad*(bdx*cdy-bdy*cdx)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Sub(b).Length()
}

// Lerp interpolates between a (t=0) and b (t=1).
func Lerp(a, b Point, t float64) Point {
	return a.Add(b.Sub(a).MulScalar(t))
}

// Less orders points by X, then Y.
func Less(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Angle returns the direction of the vector from a to b in (-pi, pi].
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// IsFinite reports whether both coordinates are finite numbers.
func IsFinite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
