// Package bajaj reconstructs the side wall between two polygon sections.
//
// The two polygons are augmented with their mutual intersection points and
// triangulated together in the plane. Triangles inside exactly one polygon
// make up the wall: each is lifted so its corners sit at the level of the
// contour they lie on. Lifted triangles that span both levels become faces in
// a first pass, along with vertical strips where the lifted surface has to
// step between levels and vertical quads along segments both polygons share.
// Whatever is still open after that is walked into regions, merged across
// slice chords and closed in a second pass.
package bajaj

import (
	"context"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/morphmesh/pkg/augment"
	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/kernel"
	"github.com/chazu/morphmesh/pkg/mesh"
	"github.com/chazu/morphmesh/pkg/region"
	"github.com/chazu/morphmesh/pkg/triangulate"
)

var (
	// ErrEmptySection is returned when a section has no usable exterior ring.
	ErrEmptySection = errors.New("bajaj: empty section")

	// ErrSameLevel is returned when both sections sit at the same Z.
	ErrSameLevel = errors.New("bajaj: sections share a level")
)

// Options controls a reconstruction.
type Options struct {
	// Logger receives stage transitions and fallback warnings. Nil means no
	// logging.
	Logger *zap.Logger

	// SmoothingSegments resamples every ring along a Catmull-Rom spline with
	// this many points per original segment before anything else. Values
	// below 2 leave the rings alone.
	SmoothingSegments int

	// VerifyAugmentation re-checks the augmented polygons and fails when
	// their boundaries still meet away from a shared vertex.
	VerifyAugmentation bool

	// AllowFanFallback lets the second pass close a region around a new
	// centroid vertex when no other strategy applies.
	AllowFanFallback bool
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{VerifyAugmentation: true, AllowFanFallback: true}
}

// Kernel is the Bajaj reconstruction backend.
type Kernel struct {
	Options Options
}

var _ kernel.Kernel = (*Kernel)(nil)

// New returns a Kernel using opts.
func New(opts Options) *Kernel {
	return &Kernel{Options: opts}
}

// Name returns "bajaj".
func (k *Kernel) Name() string {
	return "bajaj"
}

// Reconstruct implements kernel.Kernel.
func (k *Kernel) Reconstruct(ctx context.Context, lower, upper kernel.Section) (*kernel.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return Reconstruct(lower, upper, k.Options)
}

// Reconstruct builds the wall between two sections. The section flagged
// Upper goes on top; when the flags agree the higher Z does.
func Reconstruct(lower, upper kernel.Section, opts Options) (*kernel.Mesh, error) {
	m, err := Build(lower, upper, opts)
	if err != nil {
		return nil, err
	}
	lower, upper = order(lower, upper)
	return m.Export(fmt.Sprintf("%s-%s", lower.Name, upper.Name)), nil
}

// Build runs the pipeline and returns the finalized topological mesh.
func Build(lower, upper kernel.Section, opts Options) (*mesh.Mesh, error) {
	lower, upper = order(lower, upper)
	if lower.Z == upper.Z {
		return nil, errors.Wrapf(ErrSameLevel, "z=%g", lower.Z)
	}
	a, err := prepare(lower, opts)
	if err != nil {
		return nil, err
	}
	c, err := prepare(upper, opts)
	if err != nil {
		return nil, err
	}

	a, c = augment.AddPointsAtIntersections(a, c)
	if opts.VerifyAugmentation {
		if err := augment.Verify(a, c); err != nil {
			return nil, err
		}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{
		opts:       opts,
		lowerPoly:  a,
		upperPoly:  c,
		lowerZ:     lower.Z,
		upperZ:     upper.Z,
		m:          mesh.New(),
		lowerVerts: make(map[geom.Point]mesh.VertexID),
		upperVerts: make(map[geom.Point]mesh.VertexID),
		lowerSegs:  make(map[segKey]bool),
		upperSegs:  make(map[segKey]bool),
		lowerDir:   make(map[segKey][2]geom.Point),
	}
	b.log = log.With(
		zap.String("mesh", b.m.ID),
		zap.String("lower", lower.Name),
		zap.String("upper", upper.Name),
	)
	if err := b.run(); err != nil {
		b.log.Debug("reconstruction failed", zap.Stringer("stage", b.m.Stage()), zap.Error(err))
		return nil, err
	}
	b.log.Info("reconstructed",
		zap.Int("vertices", b.m.VertexCount()),
		zap.Int("faces", b.m.FaceCount()),
		zap.Int("deferred", b.deferred),
		zap.Int("fallbacks", b.fallbacks),
	)
	return b.m, nil
}

func order(a, b kernel.Section) (kernel.Section, kernel.Section) {
	switch {
	case a.Upper && !b.Upper:
		return b, a
	case a.Upper == b.Upper && a.Z > b.Z:
		return b, a
	}
	return a, b
}

func prepare(s kernel.Section, opts Options) (geom.Polygon, error) {
	p := s.Polygon
	if opts.SmoothingSegments > 1 {
		p = geom.SmoothPolygon(p, opts.SmoothingSegments)
	}
	p = p.Normalize()
	if len(p.Exterior) < 3 || p.Area() <= 0 {
		return geom.Polygon{}, errors.Wrapf(ErrEmptySection, "section %q", s.Name)
	}
	p.Holes = lo.Filter(p.Holes, func(h geom.Ring, _ int) bool { return len(h) >= 3 })
	return p, nil
}

// builder carries the state of one reconstruction.
type builder struct {
	opts Options
	log  *zap.Logger
	m    *mesh.Mesh

	lowerPoly, upperPoly geom.Polygon
	lowerZ, upperZ       float64

	lowerVerts, upperVerts map[geom.Point]mesh.VertexID
	lowerSegs, upperSegs   map[segKey]bool
	// lowerDir holds each lower segment in ring direction.
	lowerDir map[segKey][2]geom.Point

	cdt    *triangulate.Triangulation
	edges  []triangulate.ClassifiedEdge
	adj    map[triangulate.Edge][]int
	zones  []zone
	copies [][3]mesh.VertexID

	deferred  int
	fallbacks int
}

func (b *builder) run() error {
	if err := b.triangulate(); err != nil {
		return err
	}
	b.lift()
	b.advance(mesh.StageTriangulated)

	keep, err := b.addDelaunayEdges()
	if err != nil {
		return err
	}
	pruned := b.m.RemoveInvalidEdges(func(e *mesh.Edge) bool { return keep[e.ID] })
	b.log.Debug("pruned delaunay edges", zap.Int("removed", pruned))
	b.advance(mesh.StageEdgesPruned)

	b.log.Debug("wall zones",
		zap.Int("lower_only", lo.Count(b.zones, zoneLower)),
		zap.Int("upper_only", lo.Count(b.zones, zoneUpper)),
		zap.Int("both", lo.Count(b.zones, zoneBoth)),
	)
	b.advance(mesh.StageRegionsFirstPass)

	if err := b.firstPass(); err != nil {
		return err
	}
	if err := b.checkFaceCounts(); err != nil {
		return err
	}
	b.advance(mesh.StageFacesFirstPass)

	regions, err := b.secondPassRegions()
	if err != nil {
		return err
	}
	b.advance(mesh.StageRegionsSecondPass)

	if err := b.secondPass(regions); err != nil {
		return err
	}
	b.advance(mesh.StageFacesSecondPass)

	if err := b.m.CheckComplete(); err != nil {
		return err
	}
	b.m.RecalculateNormals()
	b.advance(mesh.StageFinalized)
	return nil
}

func (b *builder) advance(next mesh.Stage) {
	b.m.Advance(next)
	b.log.Debug("stage",
		zap.Stringer("stage", next),
		zap.Int("vertices", b.m.VertexCount()),
		zap.Int("edges", b.m.EdgeCount()),
		zap.Int("faces", b.m.FaceCount()),
	)
}

func (b *builder) checkFaceCounts() error {
	if bad := b.m.EdgesHaveMoreThanTwoFaces(); len(bad) > 0 {
		e := b.m.Edge(bad[0])
		return &mesh.EdgeOverfullError{Edge: e.ID, Faces: e.Faces(), Snapshot: b.m.Summary()}
	}
	return nil
}

// ---- triangulation ----

// triangulate creates the vertex copies and contour edges of both polygons,
// then triangulates all their points with every ring segment as a
// constraint. Lower contour edges are stored in ring direction and upper ones
// reversed, which is the direction the wall face along each will run.
func (b *builder) triangulate() error {
	var points []geom.Point
	var constraints []geom.Segment

	addRings := func(p geom.Polygon, level mesh.Level, z float64) error {
		verts, segs := b.lowerVerts, b.lowerSegs
		if level == mesh.Upper {
			verts, segs = b.upperVerts, b.upperSegs
		}
		for ri, ring := range p.Rings() {
			for i, pt := range ring {
				if _, ok := verts[pt]; !ok {
					verts[pt] = b.m.AddVertex(v3.Vec{X: pt.X, Y: pt.Y, Z: z}, level,
						mesh.Origin{Kind: mesh.Source, Ring: ri, Index: i})
				}
				points = append(points, pt)
			}
			for _, s := range ring.Segments() {
				segs[keyOf(s.A, s.B)] = true
				if level == mesh.Lower {
					b.lowerDir[keyOf(s.A, s.B)] = [2]geom.Point{s.A, s.B}
				}
				constraints = append(constraints, s)
				from, to := verts[s.A], verts[s.B]
				if level == mesh.Upper {
					from, to = to, from
				}
				if _, err := b.m.AddEdge(mesh.Contour, from, to); err != nil && !errors.Is(err, mesh.ErrDuplicateEdge) {
					return err
				}
			}
		}
		return nil
	}
	if err := addRings(b.lowerPoly, mesh.Lower, b.lowerZ); err != nil {
		return err
	}
	if err := addRings(b.upperPoly, mesh.Upper, b.upperZ); err != nil {
		return err
	}

	cdt, err := triangulate.Triangulate(points, constraints)
	if err != nil {
		return err
	}
	if len(cdt.Triangles) == 0 {
		return errors.Wrap(triangulate.ErrTriangulationFailed, "no triangles")
	}
	b.cdt = cdt
	b.edges = triangulate.Classify(cdt, func(p, q geom.Point) bool {
		k := keyOf(p, q)
		return b.lowerSegs[k] || b.upperSegs[k]
	})
	b.adj = make(map[triangulate.Edge][]int, len(b.edges))
	for _, ce := range b.edges {
		b.adj[ce.Edge] = ce.Triangles
	}
	b.zones = make([]zone, len(cdt.Triangles))
	for ti := range cdt.Triangles {
		c := cdt.Centroid(ti)
		inLower, inUpper := b.lowerPoly.ContainsPoint(c), b.upperPoly.ContainsPoint(c)
		switch {
		case inLower && inUpper:
			b.zones[ti] = zoneBoth
		case inLower:
			b.zones[ti] = zoneLower
		case inUpper:
			b.zones[ti] = zoneUpper
		}
	}
	return nil
}

// addDelaunayEdges adds every interior triangulation edge. An edge next to a
// wall triangle joins the copies that triangle will use; it is kept only if
// such a triangle spans both levels and will therefore become a face in the
// first pass.
func (b *builder) addDelaunayEdges() (map[mesh.EdgeID]bool, error) {
	keep := make(map[mesh.EdgeID]bool)
	for _, ce := range b.edges {
		if ce.Class == triangulate.ClassContour {
			continue
		}
		e := ce.Edge
		var u, v mesh.VertexID
		found, spanning := false, false
		for _, ti := range ce.Triangles {
			if !b.zones[ti].wall() {
				continue
			}
			s := b.spans(ti)
			if !found || (s && !spanning) {
				u, v = b.copyOf(ti, e[0]), b.copyOf(ti, e[1])
				found, spanning = true, s
			}
		}
		if !found {
			u, v = b.defaultCopy(b.cdt.Points[e[0]]), b.defaultCopy(b.cdt.Points[e[1]])
		}
		id, err := b.m.AddEdge(mesh.Delaunay, u, v)
		if err != nil && !errors.Is(err, mesh.ErrDuplicateEdge) {
			return nil, err
		}
		if err == nil && spanning {
			keep[id] = true
		}
	}
	return keep, nil
}

func (b *builder) defaultCopy(p geom.Point) mesh.VertexID {
	if v, ok := b.lowerVerts[p]; ok {
		return v
	}
	return b.upperVerts[p]
}

// ---- first pass ----

// firstPass emits the lifted wall triangles that span both levels, the
// strips that connect lifted edges to contours at the other level, and
// vertical quads along segments shared by both polygons with no wall on
// either side. Flat lifted triangles are left for the second pass.
func (b *builder) firstPass() error {
	for ti := range b.cdt.Triangles {
		if !b.zones[ti].wall() {
			continue
		}
		if err := b.emitStrips(ti); err != nil {
			return err
		}
		if !b.spans(ti) {
			b.deferred++
			continue
		}
		w, c := b.winding(ti), b.copies[ti]
		if _, err := b.m.AddTriangle(c[w[0]], c[w[1]], c[w[2]]); err != nil {
			return errors.Wrapf(err, "wall triangle %d", ti)
		}
	}
	if err := b.emitQuads(); err != nil {
		return err
	}
	b.log.Debug("first pass",
		zap.Int("faces", b.m.FaceCount()),
		zap.Int("deferred", b.deferred),
	)
	return nil
}

// emitStrips connects each contour edge of triangle ti to the lifted
// triangle when the copies the triangle chose are not on that contour's
// level.
func (b *builder) emitStrips(ti int) error {
	tri, c, z := b.cdt.Triangles[ti], b.copies[ti], b.zones[ti]
	w := b.winding(ti)
	for k := 0; k < 3; k++ {
		i, j := w[k], w[(k+1)%3]
		from, to := b.cdt.Points[tri[i]], b.cdt.Points[tri[j]]
		level, ok := b.contourLevel(from, to, z)
		if !ok {
			continue
		}
		fromL, ok1 := b.copyAt(from, level)
		toL, ok2 := b.copyAt(to, level)
		if !ok1 || !ok2 {
			return errors.Errorf("bajaj: contour %v-%v has no %s copy", from, to, level)
		}
		fromC, toC := c[i], c[j]
		if toC != toL {
			if _, err := b.m.AddTriangle(fromL, toL, toC); err != nil {
				return errors.Wrapf(err, "strip on triangle %d", ti)
			}
		}
		if fromC != fromL {
			if _, err := b.m.AddTriangle(fromL, toC, fromC); err != nil {
				return errors.Wrapf(err, "strip on triangle %d", ti)
			}
		}
	}
	return nil
}

// emitQuads adds a vertical quad on every segment shared by both polygons
// whose sides are both off the wall.
func (b *builder) emitQuads() error {
	for _, ce := range b.edges {
		if ce.Class != triangulate.ClassContour {
			continue
		}
		k := keyOf(b.cdt.Points[ce.Edge[0]], b.cdt.Points[ce.Edge[1]])
		if !b.lowerSegs[k] || !b.upperSegs[k] {
			continue
		}
		if lo.SomeBy(ce.Triangles, func(ti int) bool { return b.zones[ti].wall() }) {
			continue
		}
		dir := b.lowerDir[k]
		u0, v0 := b.lowerVerts[dir[0]], b.lowerVerts[dir[1]]
		u1, v1 := b.upperVerts[dir[0]], b.upperVerts[dir[1]]
		if _, err := b.m.AddTriangle(u0, v0, v1); err != nil {
			return errors.Wrap(err, "shared segment quad")
		}
		if _, err := b.m.AddTriangle(u0, v1, u1); err != nil {
			return errors.Wrap(err, "shared segment quad")
		}
	}
	return nil
}

// ---- second pass ----

// secondPassRegions drops interior edges the first pass left unused and
// walks the open boundary around the incomplete vertices into regions.
// Bare contour rings on opposite levels are merged across slice chords.
func (b *builder) secondPassRegions() ([]*region.Region, error) {
	unused := b.m.RemoveInvalidEdges(func(*mesh.Edge) bool { return false })
	incomplete := region.IncompleteVertices(b.m)
	b.log.Debug("incomplete vertices",
		zap.Int("count", len(incomplete)),
		zap.Int("unused_edges_removed", unused),
	)
	if len(incomplete) == 0 {
		return nil, nil
	}
	regions, err := region.Walk(b.m, incomplete)
	if err != nil {
		return nil, err
	}
	tree := region.NewSliceChordRTree(b.contourSegments())
	g := region.BuildGraph(b.m, regions, tree)
	merged := region.Merge(b.m, g)
	b.log.Debug("regions",
		zap.Int("walked", len(regions)),
		zap.Int("links", len(g.Links)),
		zap.Int("components", len(g.Components())),
		zap.Int("after_merge", len(merged)),
	)
	return merged, nil
}

func (b *builder) contourSegments() []geom.Segment {
	var out []geom.Segment
	for _, e := range b.m.Edges() {
		if e.Type == mesh.Contour {
			out = append(out, geom.Seg(b.m.Vertex(e.V[0]).XY(), b.m.Vertex(e.V[1]).XY()))
		}
	}
	return out
}

// secondPass closes every region, checking face counts after each one.
func (b *builder) secondPass(regions []*region.Region) error {
	opts := region.Options{AllowFan: b.opts.AllowFanFallback}
	for _, r := range regions {
		s, err := region.Close(b.m, r, opts)
		if err != nil {
			return errors.Wrapf(err, "closing region %d", r.ID)
		}
		if err := b.checkFaceCounts(); err != nil {
			return err
		}
		if s.Fallback() {
			b.fallbacks++
			b.log.Warn("region closed by fallback",
				zap.Int("region", r.ID),
				zap.Stringer("strategy", s),
				zap.Int("length", r.Len()),
			)
			continue
		}
		b.log.Debug("region closed",
			zap.Int("region", r.ID),
			zap.Stringer("strategy", s),
			zap.Int("length", r.Len()),
		)
	}
	return nil
}
