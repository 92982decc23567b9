package region

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/mesh"
	"github.com/chazu/morphmesh/pkg/triangulate"
)

// Strategy names the way a region was closed.
type Strategy int

const (
	SingleTriangle Strategy = iota
	TwoChainStitch
	PolygonFill
	CentroidFan
	// SeparateRings means a merged band could not be stitched and its two
	// rings were closed on their own.
	SeparateRings
)

// String returns the human-readable name of the strategy.
func (s Strategy) String() string {
	switch s {
	case SingleTriangle:
		return "single-triangle"
	case TwoChainStitch:
		return "two-chain-stitch"
	case PolygonFill:
		return "polygon-fill"
	case CentroidFan:
		return "centroid-fan"
	case SeparateRings:
		return "separate-rings"
	default:
		return "unknown"
	}
}

// Fallback reports whether the strategy is a last resort that adds geometry
// or gives up on connecting the layers.
func (s Strategy) Fallback() bool {
	return s == CentroidFan || s == SeparateRings
}

// Options controls Close.
type Options struct {
	// AllowFan permits a synthetic centroid vertex when nothing else works.
	AllowFan bool
}

// Close turns region r into faces. Strategies are tried in order: single
// triangle, two-chain stitch, polygon fill, centroid fan. Each is planned in
// full and checked against current face counts before anything is added, so
// a rejected plan leaves the mesh untouched.
func Close(m *mesh.Mesh, r *Region, opts Options) (Strategy, error) {
	if r.Merged {
		p, ok := planStitch(m, r.Cycle, r.Cycle[:r.Split], r.Cycle[r.Split:])
		if ok {
			return TwoChainStitch, p.apply()
		}
		lower := &Region{Cycle: r.Cycle[:r.Split-1]}
		upper := &Region{Cycle: r.Cycle[r.Split : len(r.Cycle)-1]}
		for _, part := range []*Region{lower, upper} {
			if _, err := Close(m, part, opts); err != nil {
				return SeparateRings, err
			}
		}
		return SeparateRings, nil
	}

	if len(r.Cycle) < 3 || len(lo.Uniq(r.Cycle)) != len(r.Cycle) {
		return 0, &mesh.UnclosableRegionError{Vertices: r.Cycle, Reason: "cycle is not simple"}
	}

	if len(r.Cycle) == 3 {
		p := newPlan(m, r.Cycle)
		if p.add(r.Cycle[0], r.Cycle[1], r.Cycle[2]) {
			return SingleTriangle, p.apply()
		}
	}
	if first, second, ok := twoRuns(m, r.Cycle); ok {
		if p, ok := planStitch(m, r.Cycle, first, second); ok {
			return TwoChainStitch, p.apply()
		}
	}
	if p, ok := planFill(m, r.Cycle); ok {
		return PolygonFill, p.apply()
	}
	if opts.AllowFan {
		if p, ok := planFan(m, r.Cycle); ok {
			return CentroidFan, p.apply()
		}
	}
	return 0, &mesh.UnclosableRegionError{Vertices: r.Cycle, Reason: "no closing strategy applies"}
}

// ---- planning ----

// synthetic stands for the centroid vertex a fan plan will create.
const synthetic = mesh.VertexID(-1)

type pair [2]mesh.VertexID

func pairOf(a, b mesh.VertexID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

type plan struct {
	m      *mesh.Mesh
	cycle  map[pair]bool
	uses   map[pair]int
	tris   [][3]mesh.VertexID
	center v3.Vec
}

func newPlan(m *mesh.Mesh, cycle []mesh.VertexID) *plan {
	p := &plan{m: m, cycle: make(map[pair]bool), uses: make(map[pair]int)}
	for i, v := range cycle {
		p.cycle[pairOf(v, cycle[(i+1)%len(cycle)])] = true
	}
	return p
}

// limit returns how many more faces the plan may put on the pair.
func (p *plan) limit(k pair) int {
	if k[0] == synthetic || k[1] == synthetic {
		return 2
	}
	id, ok := p.m.FindEdge(k[0], k[1])
	if !ok {
		return 2
	}
	if !p.cycle[k] {
		// Existing edges off the cycle belong to other regions.
		return 0
	}
	e := p.m.Edge(id)
	return mesh.Target(e.Type) - e.FaceCount()
}

// add records triangle a -> b -> c if it keeps every edge within bounds.
func (p *plan) add(a, b, c mesh.VertexID) bool {
	if a == b || b == c || c == a {
		return false
	}
	keys := []pair{pairOf(a, b), pairOf(b, c), pairOf(c, a)}
	for _, k := range keys {
		if p.uses[k]+1 > p.limit(k) {
			return false
		}
	}
	for _, k := range keys {
		p.uses[k]++
	}
	p.tris = append(p.tris, [3]mesh.VertexID{a, b, c})
	return true
}

// complete reports whether every cycle edge received a face.
func (p *plan) complete() bool {
	for k := range p.cycle {
		if p.uses[k] == 0 {
			return false
		}
	}
	return true
}

func (p *plan) apply() error {
	s := mesh.VertexID(mesh.None)
	for _, t := range p.tris {
		for k := range t {
			if t[k] != synthetic {
				continue
			}
			if s == mesh.None {
				s = p.m.AddVertex(p.center, mesh.Between, mesh.Origin{Kind: mesh.Synthetic})
			}
			t[k] = s
		}
		if _, err := p.m.AddTriangle(t[0], t[1], t[2]); err != nil {
			return errors.Wrap(err, "region: applying closure")
		}
	}
	return nil
}

// twoRuns splits a cycle into its two single-level runs, when the level
// changes exactly twice around the cycle.
func twoRuns(m *mesh.Mesh, cycle []mesh.VertexID) ([]mesh.VertexID, []mesh.VertexID, bool) {
	n := len(cycle)
	level := func(i int) mesh.Level { return m.Vertex(cycle[(i+n)%n]).Level }
	start, changes := -1, 0
	for i := 0; i < n; i++ {
		if level(i) != level(i-1) {
			changes++
			if start < 0 {
				start = i
			}
		}
	}
	if changes != 2 {
		return nil, nil, false
	}
	rot := append(append([]mesh.VertexID(nil), cycle[start:]...), cycle[:start]...)
	split := 1
	for split < n && m.Vertex(rot[split]).Level == m.Vertex(rot[0]).Level {
		split++
	}
	return rot[:split], rot[split:], true
}

// planStitch zips chain P = p0..pa and chain Q = q0..qb of the cycle
// p0 -> .. -> pa -> q0 -> .. -> qb -> p0. Each step advances one chain along
// the shorter new chord, skipping chords that already exist.
func planStitch(m *mesh.Mesh, cycle, P, Q []mesh.VertexID) (*plan, bool) {
	p := newPlan(m, cycle)
	Qr := lo.Reverse(append([]mesh.VertexID(nil), Q...))
	a, b := len(P)-1, len(Qr)-1
	chords := map[pair]bool{pairOf(P[0], Qr[0]): true}

	chordOK := func(i, j int) bool {
		if i == a && j == b {
			return true
		}
		u, v := P[i], Qr[j]
		if u == v || chords[pairOf(u, v)] {
			return false
		}
		_, exists := m.FindEdge(u, v)
		return !exists
	}
	dist := func(u, v mesh.VertexID) float64 {
		return m.Vertex(u).Pos.Sub(m.Vertex(v).Pos).Length()
	}

	i, j := 0, 0
	for i < a || j < b {
		okP := i < a && chordOK(i+1, j)
		okQ := j < b && chordOK(i, j+1)
		var advanceP bool
		switch {
		case okP && okQ:
			advanceP = dist(P[i+1], Qr[j]) <= dist(P[i], Qr[j+1])
		case okP:
			advanceP = true
		case okQ:
			advanceP = false
		default:
			return nil, false
		}
		if advanceP {
			if !p.add(P[i], P[i+1], Qr[j]) {
				return nil, false
			}
			i++
		} else {
			if !p.add(Qr[j+1], Qr[j], P[i]) {
				return nil, false
			}
			j++
		}
		chords[pairOf(P[i], Qr[j])] = true
	}
	return p, p.complete()
}

// planFill triangulates the cycle's projection onto the section plane.
func planFill(m *mesh.Mesh, cycle []mesh.VertexID) (*plan, bool) {
	ring := make(geom.Ring, len(cycle))
	for i, v := range cycle {
		ring[i] = m.Vertex(v).XY()
	}
	tris, err := triangulate.FillPolygon(ring)
	if err != nil {
		return nil, false
	}
	ccw := ring.SignedArea() > 0
	p := newPlan(m, cycle)
	for _, t := range tris {
		a, b, c := cycle[t[0]], cycle[t[1]], cycle[t[2]]
		if !ccw {
			b, c = c, b
		}
		if !p.add(a, b, c) {
			return nil, false
		}
	}
	return p, p.complete()
}

// planFan connects every cycle edge to a new vertex at the cycle centroid.
func planFan(m *mesh.Mesh, cycle []mesh.VertexID) (*plan, bool) {
	p := newPlan(m, cycle)
	var sum v3.Vec
	for _, v := range cycle {
		sum = sum.Add(m.Vertex(v).Pos)
	}
	p.center = sum.MulScalar(1 / float64(len(cycle)))
	for i, v := range cycle {
		if !p.add(v, cycle[(i+1)%len(cycle)], synthetic) {
			return nil, false
		}
	}
	return p, p.complete()
}
