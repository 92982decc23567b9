// Package sdfx converts reconstructed meshes into github.com/deadsy/sdfx
// triangles so they can be written with the sdfx STL renderer.
package sdfx

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"

	"github.com/chazu/morphmesh/pkg/kernel"
)

// ToTriangles converts a mesh into sdfx triangles, keeping the winding.
func ToTriangles(m *kernel.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		var tri sdf.Triangle3
		for j, idx := range m.Triangle(i) {
			p := m.Vertex(idx)
			tri[j] = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		out = append(out, &tri)
	}
	return out
}

// Normals returns the sdfx-computed normal of every triangle. It is used to
// cross-check the normals stored on the mesh.
func Normals(m *kernel.Mesh) []v3.Vec {
	tris := ToTriangles(m)
	out := make([]v3.Vec, len(tris))
	for i, tri := range tris {
		out[i] = tri.Normal()
	}
	return out
}

// SaveSTL writes the mesh to path as a binary STL file.
func SaveSTL(path string, m *kernel.Mesh) error {
	if m == nil || m.IsEmpty() {
		return errors.New("sdfx: empty mesh")
	}
	if err := render.SaveSTL(path, ToTriangles(m)); err != nil {
		return errors.Wrapf(err, "sdfx: writing %s", path)
	}
	return nil
}
