package geom

// CatmullRom resamples a closed ring along a uniform Catmull-Rom spline.
// Every original point is kept and samples-1 interpolated points are inserted
// after it. samples <= 1 returns a copy of the ring.
func CatmullRom(r Ring, samples int) Ring {
	if samples <= 1 || len(r) < 3 {
		return r.Clone()
	}
	out := make(Ring, 0, len(r)*samples)
	for i := range r {
		p0, p1, p2, p3 := r.At(i-1), r.At(i), r.At(i+1), r.At(i+2)
		out = append(out, p1)
		for s := 1; s < samples; s++ {
			t := float64(s) / float64(samples)
			out = append(out, catmullRomPoint(p0, p1, p2, p3, t))
		}
	}
	return out.Clean()
}

func catmullRomPoint(p0, p1, p2, p3 Point, t float64) Point {
	t2 := t * t
	t3 := t2 * t
	f := func(a, b, c, d float64) float64 {
		return 0.5 * (2*b + (-a+c)*t + (2*a-5*b+4*c-d)*t2 + (-a+3*b-3*c+d)*t3)
	}
	return Point{
		X: f(p0.X, p1.X, p2.X, p3.X),
		Y: f(p0.Y, p1.Y, p2.Y, p3.Y),
	}
}

// SmoothPolygon applies CatmullRom to every ring of p.
func SmoothPolygon(p Polygon, samples int) Polygon {
	out := Polygon{Exterior: CatmullRom(p.Exterior, samples)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, CatmullRom(h, samples))
	}
	return out
}
