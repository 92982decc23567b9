package region

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/chazu/morphmesh/pkg/mesh"
)

// LinkKind says why two regions are adjacent.
type LinkKind int

const (
	SharedVertex LinkKind = iota
	SliceChord
)

// String returns the human-readable name of the link kind.
func (k LinkKind) String() string {
	switch k {
	case SharedVertex:
		return "shared-vertex"
	case SliceChord:
		return "slice-chord"
	default:
		return "unknown"
	}
}

// Link joins regions A and B. For slice chords, Chord holds the lower and
// upper endpoints of the shortest valid chord and Length its 3D length.
type Link struct {
	A, B   int
	Kind   LinkKind
	Vertex mesh.VertexID
	Chord  [2]mesh.VertexID
	Length float64
}

// Graph is the adjacency structure over regions.
type Graph struct {
	Regions []*Region
	Links   []Link
}

// BuildGraph links every pair of regions that share a vertex, and every pair
// of exposed contour rings on opposite levels that can be joined by a slice
// chord that crosses no contour segment.
func BuildGraph(m *mesh.Mesh, regions []*Region, tree *SliceChordRTree) *Graph {
	g := &Graph{Regions: regions}
	verts := make([]map[mesh.VertexID]bool, len(regions))
	for i, r := range regions {
		verts[i] = lo.Associate(r.Cycle, func(v mesh.VertexID) (mesh.VertexID, bool) { return v, true })
	}

	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			if shared, ok := firstShared(regions[i], verts[j]); ok {
				g.Links = append(g.Links, Link{A: i, B: j, Kind: SharedVertex, Vertex: shared})
				continue
			}
			lower, upper := regions[i], regions[j]
			if !lower.Exposed() || !upper.Exposed() || lower.Level == upper.Level {
				continue
			}
			if lower.Level == mesh.Upper {
				lower, upper = upper, lower
			}
			if l, u, d, ok := shortestChord(m, lower, upper, tree); ok {
				g.Links = append(g.Links, Link{A: i, B: j, Kind: SliceChord, Chord: [2]mesh.VertexID{l, u}, Length: d})
			}
		}
	}
	return g
}

func firstShared(r *Region, other map[mesh.VertexID]bool) (mesh.VertexID, bool) {
	for _, v := range r.Cycle {
		if other[v] {
			return v, true
		}
	}
	return 0, false
}

func shortestChord(m *mesh.Mesh, lower, upper *Region, tree *SliceChordRTree) (mesh.VertexID, mesh.VertexID, float64, bool) {
	bestL, bestU, best := mesh.VertexID(0), mesh.VertexID(0), math.Inf(1)
	for _, l := range lower.Cycle {
		lv := m.Vertex(l)
		for _, u := range upper.Cycle {
			uv := m.Vertex(u)
			d := lv.Pos.Sub(uv.Pos).Length()
			if d >= best {
				continue
			}
			if tree != nil && !tree.Valid(lv.XY(), uv.XY()) {
				continue
			}
			bestL, bestU, best = l, u, d
		}
	}
	return bestL, bestU, best, !math.IsInf(best, 1)
}

// Components groups region indices into connected components.
func (g *Graph) Components() [][]int {
	parent := make([]int, len(g.Regions))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for _, l := range g.Links {
		parent[find(l.A)] = find(l.B)
	}
	groups := make(map[int][]int)
	for i := range g.Regions {
		groups[find(i)] = append(groups[find(i)], i)
	}
	out := lo.Values(groups)
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Merge joins exposed lower and upper rings along their slice-chord links
// into merged band regions. Candidates are taken smallest merged perimeter
// first, ties going to the chord with the lowest vertex ids; each region
// merges at most once. Unmerged regions are returned unchanged.
func Merge(m *mesh.Mesh, g *Graph) []*Region {
	type candidate struct {
		link      Link
		perimeter float64
	}
	var cands []candidate
	for _, l := range g.Links {
		if l.Kind != SliceChord {
			continue
		}
		p := g.Regions[l.A].Perimeter(m) + g.Regions[l.B].Perimeter(m) + 2*l.Length
		cands = append(cands, candidate{link: l, perimeter: p})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.perimeter != b.perimeter {
			return a.perimeter < b.perimeter
		}
		if a.link.Chord[0] != b.link.Chord[0] {
			return a.link.Chord[0] < b.link.Chord[0]
		}
		return a.link.Chord[1] < b.link.Chord[1]
	})

	taken := make(map[int]bool)
	var out []*Region
	for _, c := range cands {
		if taken[c.link.A] || taken[c.link.B] {
			continue
		}
		taken[c.link.A], taken[c.link.B] = true, true
		lower, upper := g.Regions[c.link.A], g.Regions[c.link.B]
		if lower.Level == mesh.Upper {
			lower, upper = upper, lower
		}
		out = append(out, mergeRings(lower, upper, c.link.Chord[0], c.link.Chord[1]))
	}
	for i, r := range g.Regions {
		if !taken[i] {
			out = append(out, r)
		}
	}
	for i, r := range out {
		r.ID = i
	}
	return out
}

// mergeRings builds the band cycle l .. l, u .. u from two rings and the
// bridge vertices l and u.
func mergeRings(lower, upper *Region, l, u mesh.VertexID) *Region {
	lc := rotateTo(lower.Cycle, l)
	uc := rotateTo(upper.Cycle, u)
	cycle := make([]mesh.VertexID, 0, len(lc)+len(uc)+2)
	cycle = append(cycle, lc...)
	cycle = append(cycle, l)
	cycle = append(cycle, uc...)
	cycle = append(cycle, u)
	return &Region{
		Cycle:  cycle,
		Parity: Mixed,
		Level:  mesh.Between,
		Merged: true,
		Split:  len(lc) + 1,
	}
}

func rotateTo(cycle []mesh.VertexID, v mesh.VertexID) []mesh.VertexID {
	i := lo.IndexOf(cycle, v)
	out := make([]mesh.VertexID, 0, len(cycle))
	out = append(out, cycle[i:]...)
	return append(out, cycle[:i]...)
}
