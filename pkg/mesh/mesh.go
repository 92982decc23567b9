// Package mesh is the topological triangle mesh used during reconstruction.
// Vertices, edges and faces live in arenas and are addressed by integer
// handles. Every edge carries a type and at most two faces; attaching a
// third face is rejected.
package mesh

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chazu/morphmesh/pkg/geom"
)

// VertexID, EdgeID and FaceID are arena handles.
type (
	VertexID int
	EdgeID   int
	FaceID   int
)

// None is the zero handle value for "no element".
const None = -1

// EdgeType tags what an edge means in the reconstruction.
type EdgeType int

const (
	// Contour edges lie on an input polygon boundary and bound one face.
	Contour EdgeType = iota
	// Corresponding edges join the two layers or split the wall and bound
	// two faces.
	Corresponding
	// Delaunay edges come from the planar triangulation and bound two
	// faces once they survive pruning.
	Delaunay
)

// String returns the human-readable name of the edge type.
func (t EdgeType) String() string {
	switch t {
	case Contour:
		return "contour"
	case Corresponding:
		return "corresponding"
	case Delaunay:
		return "delaunay"
	default:
		return "unknown"
	}
}

// Level is the layer a vertex belongs to.
type Level int

const (
	Lower Level = iota
	Upper
	Between
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	case Between:
		return "between"
	default:
		return "unknown"
	}
}

// OriginKind says whether a vertex came from an input ring or was added
// during closing.
type OriginKind int

const (
	Source OriginKind = iota
	Synthetic
)

// Origin records where a vertex came from. Ring and Index are meaningful
// only for Source vertices.
type Origin struct {
	Kind  OriginKind
	Ring  int
	Index int
}

// Vertex is a mesh vertex.
type Vertex struct {
	ID     VertexID
	Pos    v3.Vec
	Level  Level
	Origin Origin

	edges []EdgeID
}

// XY returns the vertex projected onto the section plane.
func (v *Vertex) XY() geom.Point {
	return geom.Point{X: v.Pos.X, Y: v.Pos.Y}
}

// Edges returns the incident edges ordered by planar direction.
func (v *Vertex) Edges() []EdgeID {
	return append([]EdgeID(nil), v.edges...)
}

// Degree returns the number of incident edges.
func (v *Vertex) Degree() int {
	return len(v.edges)
}

// Edge is an undirected mesh edge.
type Edge struct {
	ID   EdgeID
	V    [2]VertexID
	Type EdgeType

	faces []FaceID
}

// Faces returns the faces bounded by the edge.
func (e *Edge) Faces() []FaceID {
	return append([]FaceID(nil), e.faces...)
}

// FaceCount returns how many faces the edge bounds.
func (e *Edge) FaceCount() int {
	return len(e.faces)
}

// Other returns the endpoint that is not v.
func (e *Edge) Other(v VertexID) VertexID {
	if e.V[0] == v {
		return e.V[1]
	}
	return e.V[0]
}

// Has reports whether v is an endpoint.
func (e *Edge) Has(v VertexID) bool {
	return e.V[0] == v || e.V[1] == v
}

// Face is a triangle. V winds so that its normal points out of the solid.
type Face struct {
	ID     FaceID
	V      [3]VertexID
	E      [3]EdgeID
	Normal v3.Vec
}

// Uses reports whether the face traverses a -> b in its winding.
func (f *Face) Uses(a, b VertexID) bool {
	for k := 0; k < 3; k++ {
		if f.V[k] == a && f.V[(k+1)%3] == b {
			return true
		}
	}
	return false
}

type pairKey [2]VertexID

func keyOf(a, b VertexID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Mesh owns all vertices, edges and faces of one reconstruction.
type Mesh struct {
	ID string

	vertices []*Vertex
	edges    []*Edge // nil once removed
	faces    []*Face
	index    map[pairKey]EdgeID
	stage    Stage
}

// New returns an empty mesh in StageBuilding with a fresh ID.
func New() *Mesh {
	return &Mesh{
		ID:    uuid.NewString(),
		index: make(map[pairKey]EdgeID),
	}
}

// ---- vertices ----

// AddVertex appends a vertex and returns its handle.
func (m *Mesh) AddVertex(pos v3.Vec, level Level, origin Origin) VertexID {
	m.mustBeMutable("AddVertex")
	id := VertexID(len(m.vertices))
	m.vertices = append(m.vertices, &Vertex{ID: id, Pos: pos, Level: level, Origin: origin})
	return id
}

// Vertex returns the vertex with the given handle.
func (m *Mesh) Vertex(id VertexID) *Vertex {
	return m.vertices[id]
}

// Vertices returns every vertex in handle order.
func (m *Mesh) Vertices() []*Vertex {
	return append([]*Vertex(nil), m.vertices...)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// ---- edges ----

// AddEdge connects a and b. When they are already connected the existing
// handle is returned together with ErrDuplicateEdge.
func (m *Mesh) AddEdge(t EdgeType, a, b VertexID) (EdgeID, error) {
	m.mustBeMutable("AddEdge")
	if a == b {
		return None, errors.Wrapf(ErrDegenerate, "self-loop at vertex %d", a)
	}
	if id, ok := m.index[keyOf(a, b)]; ok {
		return id, errors.Wrapf(ErrDuplicateEdge, "%d-%d", a, b)
	}
	id := EdgeID(len(m.edges))
	m.edges = append(m.edges, &Edge{ID: id, V: [2]VertexID{a, b}, Type: t})
	m.index[keyOf(a, b)] = id
	m.attach(a, id)
	m.attach(b, id)
	return id, nil
}

// attach inserts edge id into the angle-ordered list of vertex v. Edges with
// no planar extent (vertical edges) sort first.
func (m *Mesh) attach(v VertexID, id EdgeID) {
	vx := m.vertices[v]
	ang := m.edgeAngle(v, id)
	i := sort.Search(len(vx.edges), func(i int) bool {
		return m.edgeAngle(v, vx.edges[i]) > ang
	})
	vx.edges = append(vx.edges, 0)
	copy(vx.edges[i+1:], vx.edges[i:])
	vx.edges[i] = id
}

func (m *Mesh) detach(v VertexID, id EdgeID) {
	vx := m.vertices[v]
	for i, e := range vx.edges {
		if e == id {
			vx.edges = append(vx.edges[:i], vx.edges[i+1:]...)
			return
		}
	}
}

func (m *Mesh) edgeAngle(v VertexID, id EdgeID) float64 {
	e := m.edges[id]
	from := m.vertices[v].XY()
	to := m.vertices[e.Other(v)].XY()
	if from == to {
		return -2 * math.Pi
	}
	return geom.Angle(from, to)
}

// FindEdge returns the edge joining a and b.
func (m *Mesh) FindEdge(a, b VertexID) (EdgeID, bool) {
	id, ok := m.index[keyOf(a, b)]
	return id, ok
}

// Edge returns the edge with the given handle, or nil if it was removed.
func (m *Mesh) Edge(id EdgeID) *Edge {
	return m.edges[id]
}

// Edges returns every live edge in handle order.
func (m *Mesh) Edges() []*Edge {
	out := make([]*Edge, 0, len(m.edges))
	for _, e := range m.edges {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// EdgeCount returns the number of live edges.
func (m *Mesh) EdgeCount() int {
	return len(m.index)
}

// FaceCountBetween returns how many faces bound the edge joining a and b,
// or zero when they are not connected.
func (m *Mesh) FaceCountBetween(a, b VertexID) int {
	id, ok := m.index[keyOf(a, b)]
	if !ok {
		return 0
	}
	return len(m.edges[id].faces)
}

// RemoveEdge deletes an edge that bounds no face.
func (m *Mesh) RemoveEdge(id EdgeID) error {
	m.mustBeMutable("RemoveEdge")
	e := m.edges[id]
	if e == nil {
		return nil
	}
	if len(e.faces) > 0 {
		return errors.Wrapf(ErrEdgeInUse, "edge %d", id)
	}
	m.detach(e.V[0], id)
	m.detach(e.V[1], id)
	delete(m.index, keyOf(e.V[0], e.V[1]))
	m.edges[id] = nil
	return nil
}

// RemoveInvalidEdges removes every faceless non-contour edge that keep
// rejects and returns how many were removed. Contour edges are never
// removed.
func (m *Mesh) RemoveInvalidEdges(keep func(*Edge) bool) int {
	removed := 0
	for _, e := range m.Edges() {
		if e.Type == Contour || len(e.faces) > 0 || keep(e) {
			continue
		}
		if err := m.RemoveEdge(e.ID); err == nil {
			removed++
		}
	}
	return removed
}

// ---- faces ----

// AddFace creates a triangle from three edges that form a cycle. The winding
// follows the chain: it starts at the end of the first edge that is not
// shared with the second.
func (m *Mesh) AddFace(edges ...EdgeID) (FaceID, error) {
	m.mustBeMutable("AddFace")
	if len(edges) != 3 {
		return None, errors.Wrapf(ErrDegenerate, "face needs 3 edges, got %d", len(edges))
	}
	e0, e1, e2 := m.edges[edges[0]], m.edges[edges[1]], m.edges[edges[2]]
	if e0 == nil || e1 == nil || e2 == nil {
		return None, errors.Wrap(ErrDegenerate, "face references a removed edge")
	}
	var v0, v1 VertexID
	switch {
	case e1.Has(e0.V[1]):
		v0, v1 = e0.V[0], e0.V[1]
	case e1.Has(e0.V[0]):
		v0, v1 = e0.V[1], e0.V[0]
	default:
		return None, errors.Wrapf(ErrDegenerate, "edges %d and %d do not meet", e0.ID, e1.ID)
	}
	v2 := e1.Other(v1)
	if v2 == v0 || !e2.Has(v2) || !e2.Has(v0) {
		return None, errors.Wrapf(ErrDegenerate, "edges %v do not form a triangle", edges)
	}

	for _, e := range []*Edge{e0, e1, e2} {
		if len(e.faces) >= 2 {
			return None, &EdgeOverfullError{Edge: e.ID, Faces: e.Faces(), Snapshot: m.Summary()}
		}
	}

	id := FaceID(len(m.faces))
	f := &Face{ID: id, V: [3]VertexID{v0, v1, v2}, E: [3]EdgeID{e0.ID, e1.ID, e2.ID}}
	f.Normal = m.faceNormal(f)
	m.faces = append(m.faces, f)
	for _, e := range []*Edge{e0, e1, e2} {
		e.faces = append(e.faces, id)
	}
	return id, nil
}

// AddTriangle creates the face a -> b -> c, adding any missing edge as
// Corresponding.
func (m *Mesh) AddTriangle(a, b, c VertexID) (FaceID, error) {
	if a == b || b == c || c == a {
		return None, errors.Wrapf(ErrDegenerate, "triangle %d %d %d", a, b, c)
	}
	// Reject before creating any edge so a failed call leaves no trace.
	for _, pr := range [][2]VertexID{{a, b}, {b, c}, {c, a}} {
		if id, ok := m.FindEdge(pr[0], pr[1]); ok && len(m.edges[id].faces) >= 2 {
			return None, &EdgeOverfullError{Edge: id, Faces: m.edges[id].Faces(), Snapshot: m.Summary()}
		}
	}
	ids := make([]EdgeID, 3)
	for k, pr := range [][2]VertexID{{a, b}, {b, c}, {c, a}} {
		id, ok := m.FindEdge(pr[0], pr[1])
		if !ok {
			var err error
			id, err = m.AddEdge(Corresponding, pr[0], pr[1])
			if err != nil {
				return None, err
			}
		}
		ids[k] = id
	}
	// (a,b) meets (b,c) at b, so AddFace winds a -> b -> c.
	return m.AddFace(ids...)
}

// Face returns the face with the given handle.
func (m *Mesh) Face(id FaceID) *Face {
	return m.faces[id]
}

// Faces returns every face in handle order.
func (m *Mesh) Faces() []*Face {
	return append([]*Face(nil), m.faces...)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

func (m *Mesh) faceNormal(f *Face) v3.Vec {
	a := m.vertices[f.V[0]].Pos
	b := m.vertices[f.V[1]].Pos
	c := m.vertices[f.V[2]].Pos
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Length() == 0 {
		return v3.Vec{}
	}
	return n.Normalize()
}

// RecalculateNormals recomputes every face normal from its winding.
// Degenerate faces get the zero vector.
func (m *Mesh) RecalculateNormals() {
	for _, f := range m.faces {
		f.Normal = m.faceNormal(f)
	}
}
