package kernel

import "math"

// Mesh is a triangle mesh ready for export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z), normals has
// 3 floats per triangle, indices has 3 uint32s per triangle.
type Mesh struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Vertices []float64    `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64    `json:"normals"`  // [nx0,ny0,nz0, ...] per triangle
	Indices  []uint32     `json:"indices"`  // [i0,i1,i2, ...] triangles
	Edges    []EdgeRecord `json:"edges"`
}

// EdgeRecord describes one mesh edge with its type and face count.
type EdgeRecord struct {
	A     uint32 `json:"a"`
	B     uint32 `json:"b"`
	Type  string `json:"type"`
	Faces int    `json:"faces"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) [3]float64 {
	return [3]float64{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// BoundingBox returns the axis-aligned bounding box of the vertices.
func (m *Mesh) BoundingBox() (min, max [3]float64) {
	if m.VertexCount() == 0 {
		return min, max
	}
	for k := 0; k < 3; k++ {
		min[k], max[k] = math.Inf(1), math.Inf(-1)
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], m.Vertices[i+k])
			max[k] = math.Max(max[k], m.Vertices[i+k])
		}
	}
	return min, max
}

// EdgeCounts returns how many edges of each type the mesh has.
func (m *Mesh) EdgeCounts() map[string]int {
	out := make(map[string]int)
	for _, e := range m.Edges {
		out[e.Type]++
	}
	return out
}
