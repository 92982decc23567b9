// Package kernel defines the abstract reconstruction kernel interface.
// Implementations turn two polygon sections into a triangle mesh. The kernel
// abstraction lets the tessellator drive any backend without knowing how the
// surface is built.
package kernel

import (
	"context"

	"github.com/chazu/morphmesh/pkg/geom"
)

// Section is a planar polygon placed at height Z. Upper marks the section
// that goes on top of a pair.
type Section struct {
	Name    string       `json:"name"`
	Z       float64      `json:"z"`
	Upper   bool         `json:"upper"`
	Polygon geom.Polygon `json:"polygon"`
}

// Kernel is the abstract reconstruction interface.
type Kernel interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Reconstruct builds the closed side-wall surface between lower and
	// upper. The context is checked before work starts; a single
	// reconstruction is not interruptible.
	Reconstruct(ctx context.Context, lower, upper Section) (*Mesh, error)
}
