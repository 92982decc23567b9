package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/morphmesh/pkg/bajaj"
	"github.com/chazu/morphmesh/pkg/config"
	"github.com/chazu/morphmesh/pkg/engine"
	"github.com/chazu/morphmesh/pkg/graph"
	"github.com/chazu/morphmesh/pkg/kernel"
	"github.com/chazu/morphmesh/pkg/kernel/sdfx"
	"github.com/chazu/morphmesh/pkg/tessellate"
)

// App ties the script engine, validation and tessellation together.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cfg    config.Config
	log    *zap.Logger
}

// MeshData is the JSON summary of one reconstructed mesh.
type MeshData struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Vertices  int            `json:"vertices"`
	Triangles int            `json:"triangles"`
	Edges     map[string]int `json:"edges"`
	Min       [3]float64     `json:"min"`
	Max       [3]float64     `json:"max"`
	STL       string         `json:"stl,omitempty"`
}

// LinkReport is the outcome of one stitch link.
type LinkReport struct {
	Link       string    `json:"link"`
	Mesh       *MeshData `json:"mesh,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
}

// EvalErrorData is a JSON-serializable evaluation or validation finding.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Report is everything one evaluation produced.
type Report struct {
	Links    []LinkReport    `json:"links"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	meshes []*kernel.Mesh // parallel to Links, nil where the link failed
}

// Failed reports whether anything went wrong.
func (r *Report) Failed() bool {
	if len(r.Errors) > 0 {
		return true
	}
	for _, l := range r.Links {
		if l.Error != "" {
			return true
		}
	}
	return false
}

// NewApp creates an App from cfg. A nil logger disables logging.
func NewApp(cfg config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		engine: engine.NewEngine(cfg.EngineOptions()...),
		kernel: bajaj.New(cfg.KernelOptions(log.Named("bajaj"))),
		cfg:    cfg,
		log:    log,
	}
}

// Evaluate runs source through the engine, validates the resulting section
// graph and reconstructs every link.
func (a *App) Evaluate(ctx context.Context, source string) *Report {
	report := &Report{
		Links:    []LinkReport{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: evaluate the script into a section graph.
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluation failed", zap.Error(err))
		report.Errors = append(report.Errors, EvalErrorData{Message: err.Error()})
		return report
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			report.Errors = append(report.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return report
	}

	// Step 2: validate; blocking findings stop here.
	res := graph.ValidateAll(g)
	for _, w := range res.Warnings {
		report.Warnings = append(report.Warnings, EvalErrorData{Message: w.Subject + ": " + w.Message})
	}
	for _, e := range res.Errors {
		report.Errors = append(report.Errors, EvalErrorData{Message: e.Error()})
	}
	if !res.OK() {
		return report
	}
	a.log.Debug("graph evaluated",
		zap.Uint64("version", g.Version),
		zap.Int("sections", g.SectionCount()),
		zap.Int("links", g.LinkCount()),
	)

	// Step 3: reconstruct every link.
	for _, r := range tessellate.Tessellate(ctx, g, a.kernel, a.cfg.TessellateOptions(a.log)) {
		lr := LinkReport{
			Link:       r.Link.String(),
			DurationMS: float64(r.Duration.Microseconds()) / 1000,
		}
		if r.OK() {
			lr.Mesh = meshData(r.Mesh)
		} else {
			lr.Error = r.Err.Error()
		}
		report.Links = append(report.Links, lr)
		report.meshes = append(report.meshes, r.Mesh)
	}

	return report
}

func meshData(m *kernel.Mesh) *MeshData {
	lo, hi := m.BoundingBox()
	return &MeshData{
		ID:        m.ID,
		Name:      m.Name,
		Vertices:  m.VertexCount(),
		Triangles: m.TriangleCount(),
		Edges:     m.EdgeCounts(),
		Min:       lo,
		Max:       hi,
	}
}

// ExportSTL writes one STL file per reconstructed link into dir and records
// the paths in the report.
func (a *App) ExportSTL(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating stl directory")
	}
	for i, m := range r.meshes {
		if m == nil {
			continue
		}
		path := filepath.Join(dir, stlName(r.Links[i].Link))
		if err := sdfx.SaveSTL(path, m); err != nil {
			return err
		}
		r.Links[i].Mesh.STL = path
		a.log.Info("wrote stl", zap.String("path", path), zap.Int("triangles", m.TriangleCount()))
	}
	return nil
}

// stlName turns a link label into a file name that stays inside the output
// directory whatever the section names contain.
func stlName(link string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(link) + ".stl"
}
