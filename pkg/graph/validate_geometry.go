package graph

import (
	"fmt"
	"math"

	"github.com/chazu/morphmesh/pkg/geom"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// minArea is the smallest ring area accepted as non-degenerate.
const minArea = 1e-12

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *SectionGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, s := range g.Sections {
		errs = append(errs, validateExterior(s)...)
		errs = append(errs, validateHoles(s)...)
		warnings = append(warnings, redundantPointWarnings(s)...)
	}
	warnings = append(warnings, disjointLinkWarnings(g)...)

	return errs, warnings
}

// validateRing checks one ring of a section. The label names the ring in
// messages.
func validateRing(s *Section, label string, r geom.Ring) []ValidationError {
	fail := func(format string, args ...interface{}) []ValidationError {
		return []ValidationError{{
			Subject:  s.Name,
			Message:  label + " " + fmt.Sprintf(format, args...),
			Severity: SeverityError,
		}}
	}

	if len(r) < 3 {
		return fail("has %d points, need at least 3", len(r))
	}
	for i, p := range r {
		if !geom.IsFinite(p) {
			return fail("point %d is not finite", i)
		}
	}
	// Collinear rings have zero area. Anything else is checked for crossings
	// first: a symmetric figure eight has zero signed area too.
	if fanArea(r) < minArea {
		return fail("has zero area")
	}
	if !r.Clean().IsSimple() {
		return fail("intersects itself")
	}
	if math.Abs(r.SignedArea()) < minArea {
		return fail("has zero area")
	}
	return nil
}

// fanArea sums the unsigned areas of the triangles fanned from r[0]. It is
// zero only when every point of r is collinear with r[0].
func fanArea(r geom.Ring) float64 {
	var sum float64
	for i := 1; i+1 < len(r); i++ {
		sum += math.Abs(geom.Orient(r[0], r[i], r[i+1])) / 2
	}
	return sum
}

// validateExterior checks the outer ring of a section.
func validateExterior(s *Section) []ValidationError {
	return validateRing(s, "exterior", s.Polygon.Exterior)
}

// validateHoles checks every hole ring and that it lies within the exterior.
func validateHoles(s *Section) []ValidationError {
	var errs []ValidationError
	ext := s.Polygon.Exterior

	for i, h := range s.Polygon.Holes {
		label := fmt.Sprintf("hole %d", i)
		if bad := validateRing(s, label, h); len(bad) > 0 {
			errs = append(errs, bad...)
			continue
		}
		for _, p := range h {
			if !ext.ContainsPoint(p) && !ext.OnBoundary(p) {
				errs = append(errs, ValidationError{
					Subject:  s.Name,
					Message:  fmt.Sprintf("%s has point (%g, %g) outside the exterior", label, p.X, p.Y),
					Severity: SeverityError,
				})
				break
			}
		}
	}

	return errs
}

// redundantPointWarnings reports rings carrying repeated points
// that reconstruction will drop.
func redundantPointWarnings(s *Section) []ValidationWarning {
	var warnings []ValidationWarning

	for i, r := range s.Polygon.Rings() {
		if len(r) < 3 {
			continue
		}
		if n := len(r) - len(r.Clean()); n > 0 {
			label := "exterior"
			if i > 0 {
				label = fmt.Sprintf("hole %d", i-1)
			}
			warnings = append(warnings, ValidationWarning{
				Subject: s.Name,
				Message: fmt.Sprintf("%s has %d repeated points", label, n),
			})
		}
	}

	return warnings
}

// disjointLinkWarnings reports links whose sections do not overlap in plan
// view. Such pairs still reconstruct, as a slanted tube.
func disjointLinkWarnings(g *SectionGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, l := range UniqueLinks(g) {
		a, b := g.Lookup(l.Lower), g.Lookup(l.Upper)
		if a == nil || b == nil || len(a.Polygon.Exterior) == 0 || len(b.Polygon.Exterior) == 0 {
			continue
		}
		if !a.Polygon.Bounds().Intersects(b.Polygon.Bounds()) {
			warnings = append(warnings, ValidationWarning{
				Subject: "link " + l.String(),
				Message: "sections do not overlap in plan view",
			})
		}
	}

	return warnings
}
