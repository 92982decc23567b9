// Package region finds the open parts of a partially built surface, groups
// them into closed boundary cycles ("regions"), relates regions to each other
// and closes them with faces.
//
// Contour edges are expected to be stored in the direction their single face
// must traverse them, so a faceless contour edge contributes its stored
// direction as a missing half-edge.
package region

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/mesh"
)

// HalfEdge is a directed edge that a future face must traverse.
type HalfEdge struct {
	From, To mesh.VertexID
}

// Parity says whether a region is bounded only by contour edges.
type Parity int

const (
	ContourOnly Parity = iota
	Mixed
)

// String returns the human-readable name of the parity.
func (p Parity) String() string {
	switch p {
	case ContourOnly:
		return "contour-only"
	case Mixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Region is a closed boundary cycle. Cycle[i] -> Cycle[i+1] (wrapping) are
// the half-edges to fill.
//
// A merged region joins a lower ring and an upper ring through a bridge
// chord. Its cycle is lower ring, bridge, upper ring, bridge back; the first
// Split entries form the lower chain with the bridge vertex repeated at both
// ends, and the rest form the upper chain likewise.
type Region struct {
	ID     int
	Cycle  []mesh.VertexID
	Parity Parity
	// Level is mesh.Lower or mesh.Upper for single-level regions and
	// mesh.Between otherwise.
	Level  mesh.Level
	Merged bool
	Split  int
}

// Len returns the number of half-edges in the cycle.
func (r *Region) Len() int {
	return len(r.Cycle)
}

// HalfEdges returns the half-edges of the cycle in order.
func (r *Region) HalfEdges() []HalfEdge {
	out := make([]HalfEdge, len(r.Cycle))
	for i, v := range r.Cycle {
		out[i] = HalfEdge{From: v, To: r.Cycle[(i+1)%len(r.Cycle)]}
	}
	return out
}

// Vertices returns the distinct vertices of the cycle.
func (r *Region) Vertices() []mesh.VertexID {
	return lo.Uniq(r.Cycle)
}

// Perimeter returns the summed 3D length of the cycle.
func (r *Region) Perimeter(m *mesh.Mesh) float64 {
	var sum float64
	for _, h := range r.HalfEdges() {
		sum += m.Vertex(h.From).Pos.Sub(m.Vertex(h.To).Pos).Length()
	}
	return sum
}

// Exposed reports whether the region is a bare contour ring on one level
// that no face touches yet.
func (r *Region) Exposed() bool {
	return !r.Merged && r.Parity == ContourOnly && r.Level != mesh.Between
}

// OpenHalfEdges lists every half-edge still missing a face: the stored
// direction of faceless contour edges and the reverse of the used direction
// of non-contour edges with one face. Edges with no faces that are not
// contour edges are ignored.
func OpenHalfEdges(m *mesh.Mesh) []HalfEdge {
	var out []HalfEdge
	for _, e := range m.Edges() {
		switch {
		case e.Type == mesh.Contour && e.FaceCount() == 0:
			out = append(out, HalfEdge{From: e.V[0], To: e.V[1]})
		case e.Type != mesh.Contour && e.FaceCount() == 1:
			f := m.Face(e.Faces()[0])
			if f.Uses(e.V[0], e.V[1]) {
				out = append(out, HalfEdge{From: e.V[1], To: e.V[0]})
			} else {
				out = append(out, HalfEdge{From: e.V[0], To: e.V[1]})
			}
		}
	}
	return out
}

// IncompleteVertices returns, in ascending order, every vertex that is an
// endpoint of an open half-edge.
func IncompleteVertices(m *mesh.Mesh) []mesh.VertexID {
	var out []mesh.VertexID
	for _, h := range OpenHalfEdges(m) {
		out = append(out, h.From, h.To)
	}
	out = lo.Uniq(out)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Walk decomposes the open half-edges that start at a vertex in scope into
// simple cycles. A nil scope means every vertex. At a vertex with several
// unused outgoing half-edges the walk takes the first one clockwise from the
// reversed incoming direction; closed walks that revisit a vertex are split
// there. A walk that gets stuck means the open boundary is unbalanced.
func Walk(m *mesh.Mesh, scope []mesh.VertexID) ([]*Region, error) {
	open := OpenHalfEdges(m)
	sort.Slice(open, func(i, j int) bool {
		if open[i].From != open[j].From {
			return open[i].From < open[j].From
		}
		return open[i].To < open[j].To
	})

	out := make(map[mesh.VertexID][]HalfEdge)
	for _, h := range open {
		out[h.From] = append(out[h.From], h)
	}
	used := make(map[HalfEdge]bool, len(open))
	inScope := func(v mesh.VertexID) bool { return scope == nil || lo.Contains(scope, v) }

	var regions []*Region
	for _, start := range open {
		if used[start] || !inScope(start.From) {
			continue
		}
		walk := []mesh.VertexID{start.From}
		used[start] = true
		cur := start
		for cur.To != start.From {
			next, ok := pickNext(m, cur, out[cur.To], used)
			if !ok {
				return nil, &mesh.UnclosableRegionError{
					Vertices: append(walk, cur.To),
					Reason:   "open boundary is not balanced",
				}
			}
			walk = append(walk, cur.To)
			used[next] = true
			cur = next
		}
		for _, cycle := range splitSimple(walk) {
			regions = append(regions, newRegion(m, len(regions), cycle))
		}
	}
	return regions, nil
}

func pickNext(m *mesh.Mesh, in HalfEdge, candidates []HalfEdge, used map[HalfEdge]bool) (HalfEdge, bool) {
	v := m.Vertex(in.To).XY()
	back := m.Vertex(in.From).XY()
	best, bestTurn, found := HalfEdge{}, math.Inf(1), false
	for _, c := range candidates {
		if used[c] {
			continue
		}
		turn := clockwiseTurn(v, back, m.Vertex(c.To).XY())
		if !found || turn < bestTurn {
			best, bestTurn, found = c, turn, true
		}
	}
	return best, found
}

// clockwiseTurn returns the clockwise angle in (0, 2pi] from direction
// v->back to direction v->to. Directions with no planar extent sort last.
func clockwiseTurn(v, back, to geom.Point) float64 {
	if v == back || v == to {
		return 2 * math.Pi
	}
	turn := geom.Angle(v, back) - geom.Angle(v, to)
	for turn <= 0 {
		turn += 2 * math.Pi
	}
	for turn > 2*math.Pi {
		turn -= 2 * math.Pi
	}
	return turn
}

// splitSimple cuts a closed walk (last vertex connects to first) into simple
// cycles at every repeated vertex.
func splitSimple(walk []mesh.VertexID) [][]mesh.VertexID {
	var cycles [][]mesh.VertexID
	stack := make([]mesh.VertexID, 0, len(walk))
	pos := make(map[mesh.VertexID]int)
	for _, v := range append(append([]mesh.VertexID(nil), walk...), walk[0]) {
		if i, seen := pos[v]; seen {
			cycle := append([]mesh.VertexID(nil), stack[i:]...)
			cycles = append(cycles, cycle)
			for _, w := range stack[i+1:] {
				delete(pos, w)
			}
			stack = stack[:i+1]
			continue
		}
		pos[v] = len(stack)
		stack = append(stack, v)
	}
	return cycles
}

func newRegion(m *mesh.Mesh, id int, cycle []mesh.VertexID) *Region {
	r := &Region{ID: id, Cycle: cycle, Parity: ContourOnly, Level: m.Vertex(cycle[0]).Level}
	for _, h := range r.HalfEdges() {
		if eid, ok := m.FindEdge(h.From, h.To); !ok || m.Edge(eid).Type != mesh.Contour {
			r.Parity = Mixed
		}
		if m.Vertex(h.From).Level != r.Level {
			r.Level = mesh.Between
		}
	}
	return r
}
