package mesh

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/chazu/morphmesh/pkg/kernel"
)

// Summary is a snapshot of mesh size and face-count distribution.
type Summary struct {
	Stage    Stage
	Vertices int
	Edges    int
	Faces    int
	ByType   map[EdgeType]int
	// FaceHistogram[k] counts edges bounding k faces; index 3 collects
	// anything larger.
	FaceHistogram [4]int
}

func (s Summary) String() string {
	return fmt.Sprintf("stage=%s v=%d e=%d f=%d contour=%d corresponding=%d delaunay=%d faces/edge=%v",
		s.Stage, s.Vertices, s.Edges, s.Faces,
		s.ByType[Contour], s.ByType[Corresponding], s.ByType[Delaunay], s.FaceHistogram)
}

// Summary returns the current snapshot.
func (m *Mesh) Summary() Summary {
	s := Summary{
		Stage:    m.stage,
		Vertices: len(m.vertices),
		Faces:    len(m.faces),
		ByType:   make(map[EdgeType]int),
	}
	for _, e := range m.edges {
		if e == nil {
			continue
		}
		s.Edges++
		s.ByType[e.Type]++
		s.FaceHistogram[min(len(e.faces), 3)]++
	}
	return s
}

// EdgesHaveMoreThanTwoFaces returns every edge bounding more than two faces.
// AddFace prevents this, so a non-empty result means the arena was corrupted.
func (m *Mesh) EdgesHaveMoreThanTwoFaces() []EdgeID {
	return lo.FilterMap(m.Edges(), func(e *Edge, _ int) (EdgeID, bool) {
		return e.ID, len(e.faces) > 2
	})
}

// OpenEdges returns every edge whose face count is below its target: one for
// contour edges, two for everything else.
func (m *Mesh) OpenEdges() []*Edge {
	return lo.Filter(m.Edges(), func(e *Edge, _ int) bool {
		return len(e.faces) < Target(e.Type)
	})
}

// Target is the number of faces an edge of type t bounds in a finished mesh.
func Target(t EdgeType) int {
	if t == Contour {
		return 1
	}
	return 2
}

// CheckComplete verifies the finished-mesh postcondition: every contour edge
// bounds exactly one face and every other edge exactly two.
func (m *Mesh) CheckComplete() error {
	if bad := m.EdgesHaveMoreThanTwoFaces(); len(bad) > 0 {
		e := m.edges[bad[0]]
		return &EdgeOverfullError{Edge: e.ID, Faces: e.Faces(), Snapshot: m.Summary()}
	}
	var wrong []*Edge
	for _, e := range m.Edges() {
		if len(e.faces) != Target(e.Type) {
			wrong = append(wrong, e)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	verts := make([]VertexID, 0, 2*len(wrong))
	for _, e := range wrong {
		verts = append(verts, e.V[0], e.V[1])
	}
	verts = lo.Uniq(verts)
	sort.Slice(verts, func(i, j int) bool { return verts[i] < verts[j] })
	e := wrong[0]
	return &UnclosableRegionError{
		Vertices: verts,
		Reason: fmt.Sprintf("%d edge(s) with wrong face count, first %s edge %d-%d has %d",
			len(wrong), e.Type, e.V[0], e.V[1], len(e.faces)),
	}
}

// Export flattens the mesh into a kernel.Mesh.
func (m *Mesh) Export(name string) *kernel.Mesh {
	out := &kernel.Mesh{
		ID:       m.ID,
		Name:     name,
		Vertices: make([]float64, 0, 3*len(m.vertices)),
		Normals:  make([]float64, 0, 3*len(m.faces)),
		Indices:  make([]uint32, 0, 3*len(m.faces)),
	}
	for _, v := range m.vertices {
		out.Vertices = append(out.Vertices, v.Pos.X, v.Pos.Y, v.Pos.Z)
	}
	for _, f := range m.faces {
		out.Indices = append(out.Indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
		out.Normals = append(out.Normals, f.Normal.X, f.Normal.Y, f.Normal.Z)
	}
	for _, e := range m.Edges() {
		out.Edges = append(out.Edges, kernel.EdgeRecord{
			A:     uint32(e.V[0]),
			B:     uint32(e.V[1]),
			Type:  e.Type.String(),
			Faces: len(e.faces),
		})
	}
	return out
}
