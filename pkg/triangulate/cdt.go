// Package triangulate builds constrained Delaunay triangulations of planar
// point sets. Points are inserted incrementally (Bowyer-Watson inside a
// super triangle), then each constraint segment is recovered by removing the
// triangles it crosses and re-triangulating the two pseudo-polygons on either
// side of it.
package triangulate

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/chazu/morphmesh/pkg/geom"
)

// ErrTriangulationFailed is returned when a constraint cannot be honoured:
// two constraints cross, a point lies inside a constraint, or the input is
// numerically degenerate.
var ErrTriangulationFailed = errors.New("triangulation failed")

// Edge is an undirected vertex pair stored with the smaller index first.
type Edge [2]int

// MakeEdge returns the canonical Edge for i and j.
func MakeEdge(i, j int) Edge {
	if i > j {
		i, j = j, i
	}
	return Edge{i, j}
}

// Triangulation is the result of Triangulate. Triangles are counter-clockwise
// index triples into Points.
type Triangulation struct {
	Points      []geom.Point
	Triangles   [][3]int
	Constraints map[Edge]bool
}

// Edges returns every undirected edge of the triangulation mapped to the
// triangles on either side of it.
func (t *Triangulation) Edges() map[Edge][]int {
	out := make(map[Edge][]int)
	for ti, tri := range t.Triangles {
		for k := 0; k < 3; k++ {
			e := MakeEdge(tri[k], tri[(k+1)%3])
			out[e] = append(out[e], ti)
		}
	}
	return out
}

// Centroid returns the centroid of triangle ti.
func (t *Triangulation) Centroid(ti int) geom.Point {
	tri := t.Triangles[ti]
	a, b, c := t.Points[tri[0]], t.Points[tri[1]], t.Points[tri[2]]
	return geom.Point{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3}
}

// Triangulate computes the constrained Delaunay triangulation of points with
// every constraint segment present as an edge. Duplicate points are merged;
// constraint endpoints that are not in points are added.
func Triangulate(points []geom.Point, constraints []geom.Segment) (*Triangulation, error) {
	t := &Triangulation{Constraints: make(map[Edge]bool)}
	index := make(map[geom.Point]int)
	add := func(p geom.Point) int {
		if i, ok := index[p]; ok {
			return i
		}
		index[p] = len(t.Points)
		t.Points = append(t.Points, p)
		return len(t.Points) - 1
	}
	for _, p := range points {
		if !geom.IsFinite(p) {
			return nil, errors.Wrapf(ErrTriangulationFailed, "non-finite point (%g, %g)", p.X, p.Y)
		}
		add(p)
	}
	pairs := make([][2]int, 0, len(constraints))
	for _, s := range constraints {
		if !geom.IsFinite(s.A) || !geom.IsFinite(s.B) {
			return nil, errors.Wrap(ErrTriangulationFailed, "non-finite constraint")
		}
		pairs = append(pairs, [2]int{add(s.A), add(s.B)})
	}

	if len(t.Points) < 3 {
		return t, nil
	}

	b := newBuilder(t.Points)
	for i := range t.Points {
		if err := b.insert(i); err != nil {
			return nil, err
		}
	}
	for _, pr := range pairs {
		if pr[0] == pr[1] {
			continue
		}
		if err := b.constrain(pr[0], pr[1]); err != nil {
			return nil, err
		}
	}

	for e := range b.fixed {
		t.Constraints[e] = true
	}
	t.Triangles = b.result()
	return t, nil
}

// ---- incremental builder ----

type builder struct {
	pts   []geom.Point // input points followed by the three super vertices
	n     int          // number of input points
	tris  map[int][3]int
	next  int
	half  map[[2]int]int // directed edge -> triangle holding it counter-clockwise
	fixed map[Edge]bool
	eps   float64 // largest orientation miss locate accepts
}

func newBuilder(points []geom.Point) *builder {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	d := math.Max(maxX-minX, maxY-minY)
	if d == 0 {
		d = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	b := &builder{
		n:     len(points),
		tris:  make(map[int][3]int),
		half:  make(map[[2]int]int),
		fixed: make(map[Edge]bool),
		eps:   1e-9 * d * d,
	}
	b.pts = append(append([]geom.Point(nil), points...),
		geom.Pt(cx-50*d, cy-50*d),
		geom.Pt(cx+50*d, cy-50*d),
		geom.Pt(cx, cy+50*d),
	)
	b.addTri(b.n, b.n+1, b.n+2)
	return b
}

func (b *builder) addTri(i, j, k int) int {
	id := b.next
	b.next++
	b.tris[id] = [3]int{i, j, k}
	b.half[[2]int{i, j}] = id
	b.half[[2]int{j, k}] = id
	b.half[[2]int{k, i}] = id
	return id
}

func (b *builder) removeTri(id int) {
	tri := b.tris[id]
	for k := 0; k < 3; k++ {
		delete(b.half, [2]int{tri[k], tri[(k+1)%3]})
	}
	delete(b.tris, id)
}

// across returns the triangle on the other side of directed edge i->j.
func (b *builder) across(i, j int) (int, bool) {
	id, ok := b.half[[2]int{j, i}]
	return id, ok
}

func (b *builder) orient(i, j, k int) float64 {
	return geom.Orient(b.pts[i], b.pts[j], b.pts[k])
}

// ids returns the live triangle ids in ascending order.
func (b *builder) ids() []int {
	out := make([]int, 0, len(b.tris))
	for id := 0; id < b.next; id++ {
		if _, ok := b.tris[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// locate returns the triangle containing p. A point within rounding of an
// edge may test slightly outside every triangle; the triangle p is least
// outside of is taken then, provided the miss is within rounding.
func (b *builder) locate(p geom.Point) (int, bool) {
	best, bestMin := -1, math.Inf(-1)
	for _, id := range b.ids() {
		tri := b.tris[id]
		o := math.Min(geom.Orient(b.pts[tri[0]], b.pts[tri[1]], p),
			math.Min(geom.Orient(b.pts[tri[1]], b.pts[tri[2]], p),
				geom.Orient(b.pts[tri[2]], b.pts[tri[0]], p)))
		if o >= 0 {
			return id, true
		}
		if o > bestMin {
			best, bestMin = id, o
		}
	}
	if best < 0 || -bestMin > b.eps {
		return 0, false
	}
	return best, true
}

// insert adds point i with a Bowyer-Watson cavity grown from the containing
// triangle. The cavity is widened until every boundary edge sees the new
// point strictly on its left, which keeps the re-fan valid.
func (b *builder) insert(i int) error {
	p := b.pts[i]
	start, ok := b.locate(p)
	if !ok {
		return errors.Wrapf(ErrTriangulationFailed, "point (%g, %g) could not be located", p.X, p.Y)
	}

	cavity := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		tri := b.tris[id]
		for k := 0; k < 3; k++ {
			nb, ok := b.across(tri[k], tri[(k+1)%3])
			if !ok || cavity[nb] {
				continue
			}
			nt := b.tris[nb]
			if geom.InCircle(b.pts[nt[0]], b.pts[nt[1]], b.pts[nt[2]], p) > 0 {
				cavity[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	var boundary [][2]int
	for {
		boundary = boundary[:0]
		grown := false
		for _, id := range sortedKeys(cavity) {
			tri := b.tris[id]
			for k := 0; k < 3; k++ {
				u, v := tri[k], tri[(k+1)%3]
				nb, ok := b.across(u, v)
				if ok && cavity[nb] {
					continue
				}
				if b.orient(u, v, i) <= 0 {
					if !ok {
						return errors.Wrapf(ErrTriangulationFailed, "point (%g, %g) outside hull", p.X, p.Y)
					}
					cavity[nb] = true
					grown = true
					continue
				}
				boundary = append(boundary, [2]int{u, v})
			}
		}
		if !grown {
			break
		}
	}

	for _, id := range sortedKeys(cavity) {
		b.removeTri(id)
	}
	for _, e := range boundary {
		b.addTri(e[0], e[1], i)
	}
	return nil
}

// constrain makes the segment between vertices a and c an edge of the
// triangulation.
func (b *builder) constrain(a, c int) error {
	e := MakeEdge(a, c)
	if _, ok := b.half[[2]int{a, c}]; ok {
		b.fixed[e] = true
		return nil
	}
	if _, ok := b.half[[2]int{c, a}]; ok {
		b.fixed[e] = true
		return nil
	}

	seg := geom.Seg(b.pts[a], b.pts[c])
	for k := 0; k < b.n; k++ {
		if k != a && k != c && seg.InteriorContains(b.pts[k]) {
			return errors.Wrapf(ErrTriangulationFailed,
				"vertex (%g, %g) lies on constraint (%g, %g)-(%g, %g)",
				b.pts[k].X, b.pts[k].Y, seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
		}
	}

	crossed := make(map[int]bool)
	for _, id := range b.ids() {
		tri := b.tris[id]
		for k := 0; k < 3; k++ {
			u, v := tri[k], tri[(k+1)%3]
			if !seg.ProperlyCrosses(geom.Seg(b.pts[u], b.pts[v])) {
				continue
			}
			if b.fixed[MakeEdge(u, v)] {
				return errors.Wrapf(ErrTriangulationFailed,
					"constraint (%g, %g)-(%g, %g) crosses another constraint",
					seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
			}
			crossed[id] = true
		}
	}
	if len(crossed) == 0 {
		return errors.Wrapf(ErrTriangulationFailed,
			"constraint (%g, %g)-(%g, %g) crosses no triangle", seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
	}

	// Boundary of the removed strip as a successor map.
	succ := make(map[int]int)
	for _, id := range sortedKeys(crossed) {
		tri := b.tris[id]
		for k := 0; k < 3; k++ {
			u, v := tri[k], tri[(k+1)%3]
			if nb, ok := b.across(u, v); ok && crossed[nb] {
				continue
			}
			if _, dup := succ[u]; dup {
				return errors.Wrap(ErrTriangulationFailed, "non-simple constraint cavity")
			}
			succ[u] = v
		}
	}
	right, ok := walkChain(succ, a, c)
	if !ok {
		return errors.Wrap(ErrTriangulationFailed, "broken constraint cavity")
	}
	left, ok := walkChain(succ, c, a)
	if !ok {
		return errors.Wrap(ErrTriangulationFailed, "broken constraint cavity")
	}
	if len(right)+len(left)+2 != len(succ) {
		return errors.Wrap(ErrTriangulationFailed, "constraint cavity has stray edges")
	}

	for _, id := range sortedKeys(crossed) {
		b.removeTri(id)
	}
	b.fill(a, c, right)
	b.fill(c, a, left)
	b.fixed[e] = true
	return nil
}

// walkChain follows succ from 'from' to 'to', returning the vertices strictly
// between them.
func walkChain(succ map[int]int, from, to int) ([]int, bool) {
	var chain []int
	cur := from
	for steps := 0; steps <= len(succ); steps++ {
		nxt, ok := succ[cur]
		if !ok {
			return nil, false
		}
		if nxt == to {
			return chain, true
		}
		chain = append(chain, nxt)
		cur = nxt
	}
	return nil, false
}

// fill triangulates the pseudo-polygon u -> chain... -> w -> u, which winds
// counter-clockwise, choosing at each step the chain vertex whose
// circumcircle with u and w is empty of the others.
func (b *builder) fill(u, w int, chain []int) {
	if len(chain) == 0 {
		return
	}
	ci := 0
	for k := 1; k < len(chain); k++ {
		c := chain[ci]
		if geom.InCircle(b.pts[u], b.pts[c], b.pts[w], b.pts[chain[k]]) > 0 {
			ci = k
		}
	}
	c := chain[ci]
	b.addTri(u, c, w)
	b.fill(u, c, chain[:ci])
	b.fill(c, w, chain[ci+1:])
}

// result returns the triangles that do not touch a super vertex.
func (b *builder) result() [][3]int {
	ids := b.ids()
	out := make([][3]int, 0, len(ids))
	for _, id := range ids {
		tri := b.tris[id]
		if tri[0] >= b.n || tri[1] >= b.n || tri[2] >= b.n {
			continue
		}
		out = append(out, tri)
	}
	return out
}
