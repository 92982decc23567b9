package mesh

import "fmt"

// Stage is a step of the reconstruction pipeline. A mesh moves through the
// stages strictly in order.
type Stage int

const (
	StageBuilding Stage = iota
	StageTriangulated
	StageEdgesPruned
	StageRegionsFirstPass
	StageFacesFirstPass
	StageRegionsSecondPass
	StageFacesSecondPass
	StageFinalized
)

// String returns the human-readable name of the stage.
func (s Stage) String() string {
	switch s {
	case StageBuilding:
		return "building"
	case StageTriangulated:
		return "triangulated"
	case StageEdgesPruned:
		return "edges-pruned"
	case StageRegionsFirstPass:
		return "regions-first-pass"
	case StageFacesFirstPass:
		return "faces-first-pass"
	case StageRegionsSecondPass:
		return "regions-second-pass"
	case StageFacesSecondPass:
		return "faces-second-pass"
	case StageFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Stage returns the current pipeline stage.
func (m *Mesh) Stage() Stage {
	return m.stage
}

// Advance moves the mesh to the next stage. Skipping or repeating a stage is
// a programming error and panics.
func (m *Mesh) Advance(next Stage) {
	if next != m.stage+1 {
		panic(fmt.Sprintf("mesh: cannot advance from %s to %s", m.stage, next))
	}
	m.stage = next
}

func (m *Mesh) mustBeMutable(op string) {
	if m.stage == StageFinalized {
		panic(fmt.Sprintf("mesh: %s on a finalized mesh", op))
	}
}
