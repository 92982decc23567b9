package geom

// Circle is a center and radius.
type Circle struct {
	Center Point
	Radius float64
}

// Circumcircle returns the circle through a, b and c. ok is false when the
// points are collinear.
func Circumcircle(a, b, c Point) (circle Circle, ok bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if d == 0 {
		return Circle{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	center := Point{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}
	return Circle{Center: center, Radius: Distance(center, a)}, true
}

// Contains reports whether p lies strictly inside the circle.
func (c Circle) Contains(p Point) bool {
	return Distance(c.Center, p) < c.Radius
}
