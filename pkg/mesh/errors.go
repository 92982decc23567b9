package mesh

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateEdge is returned by AddEdge when the vertex pair is already
	// connected. The existing edge handle is returned alongside it.
	ErrDuplicateEdge = errors.New("mesh: duplicate edge")

	// ErrEdgeInUse is returned when removing an edge that still bounds a face.
	ErrEdgeInUse = errors.New("mesh: edge bounds a face")

	// ErrDegenerate is returned for self-loop edges and faces whose edges do
	// not form a triangle.
	ErrDegenerate = errors.New("mesh: degenerate element")
)

// EdgeOverfullError reports an attempt to attach a third face to an edge.
// Snapshot describes the mesh at the moment of failure.
type EdgeOverfullError struct {
	Edge     EdgeID
	Faces    []FaceID
	Snapshot Summary
}

func (e *EdgeOverfullError) Error() string {
	return fmt.Sprintf("mesh: edge %d already bounds faces %v (%s)", e.Edge, e.Faces, e.Snapshot)
}

// UnclosableRegionError reports a region of the surface that no closing
// strategy could turn into faces.
type UnclosableRegionError struct {
	Vertices []VertexID
	Reason   string
}

func (e *UnclosableRegionError) Error() string {
	ids := make([]string, 0, len(e.Vertices))
	for _, v := range e.Vertices {
		ids = append(ids, fmt.Sprint(int(v)))
	}
	return fmt.Sprintf("mesh: unclosable region [%s]: %s", strings.Join(ids, " "), e.Reason)
}
