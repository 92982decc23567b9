package graph

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/morphmesh/pkg/geom"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidStack creates three stacked squares joined by two links.
func buildValidStack() *SectionGraph {
	g := New()
	g.AddSection(square("bottom", 0, 0, 4))
	g.AddSection(square("middle", 10, 0, 3))
	g.AddSection(square("top", 20, 0, 2))
	g.AddLink("bottom", "middle")
	g.AddLink("middle", "top")
	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if warnings contains a message with substr.
func hasWarning(warnings []ValidationWarning, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tier 1
// ---------------------------------------------------------------------------

func TestValidStackHasNoFindings(t *testing.T) {
	res := ValidateAll(buildValidStack())
	if !res.OK() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *SectionGraph)
		want  string
	}{
		{
			name:  "duplicate name",
			build: func(g *SectionGraph) { g.AddSection(square("top", 30, 0, 1)) },
			want:  "duplicate section name",
		},
		{
			name:  "unnamed section",
			build: func(g *SectionGraph) { g.AddSection(square("", 30, 0, 1)) },
			want:  "has no name",
		},
		{
			name:  "dangling link",
			build: func(g *SectionGraph) { g.AddLink("top", "roof") },
			want:  `missing section "roof"`,
		},
		{
			name:  "self link",
			build: func(g *SectionGraph) { g.AddLink("top", "top") },
			want:  "to itself",
		},
		{
			name: "equal z",
			build: func(g *SectionGraph) {
				g.AddSection(square("twin", 20, 10, 1))
				g.AddLink("top", "twin")
			},
			want: "both sections are at z=20",
		},
		{
			name: "both upper",
			build: func(g *SectionGraph) {
				g.MustLookup("bottom").Upper = true
				g.MustLookup("top").Upper = true
				g.AddLink("bottom", "top")
			},
			want: "both sections are marked upper",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildValidStack()
			tt.build(g)
			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, errs)
			}
		})
	}
}

func TestStructuralWarnings(t *testing.T) {
	g := buildValidStack()
	g.AddLink("middle", "bottom")
	g.AddSection(square("spare", 40, 0, 1))

	res := ValidateAll(g)
	if !res.OK() {
		t.Errorf("warnings should not block: %v", res.Errors)
	}
	if !hasWarning(res.Warnings, "duplicate link") {
		t.Errorf("expected duplicate link warning, got %v", res.Warnings)
	}
	if !hasWarning(res.Warnings, "not part of any link") {
		t.Errorf("expected unlinked warning, got %v", res.Warnings)
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	g := buildValidStack()
	g.AddLink("top", "ghost")
	before := len(g.Links)
	Validate(g)
	ValidateAll(g)
	if len(g.Links) != before || g.SectionCount() != 3 {
		t.Error("validation mutated the graph")
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Subject: "top", Message: "bad", Severity: SeverityError}
	if got := e.Error(); got != "[error] top: bad" {
		t.Errorf("Error() = %q", got)
	}
	e = ValidationError{Message: "bad", Severity: SeverityWarning}
	if got := e.Error(); got != "[warning] bad" {
		t.Errorf("Error() = %q", got)
	}
	if got := ValidationSeverity(7).String(); got != "ValidationSeverity(7)" {
		t.Errorf("String() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Tier 2
// ---------------------------------------------------------------------------

func TestGeometricErrors(t *testing.T) {
	tests := []struct {
		name string
		poly geom.Polygon
		want string
	}{
		{
			name: "too few points",
			poly: geom.NewPolygon(geom.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}}),
			want: "exterior has 2 points",
		},
		{
			name: "zero area",
			poly: geom.NewPolygon(geom.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}),
			want: "exterior has zero area",
		},
		{
			name: "not finite",
			poly: geom.NewPolygon(geom.Ring{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 1, Y: 1}}),
			want: "point 1 is not finite",
		},
		{
			name: "collinear doubling back",
			poly: geom.NewPolygon(geom.Ring{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0}, {X: 3, Y: 0}}),
			want: "exterior has zero area",
		},
		{
			// Signed area cancels to zero but the ring is not degenerate.
			name: "bow tie",
			poly: geom.NewPolygon(geom.Ring{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2}}),
			want: "exterior intersects itself",
		},
		{
			name: "hole outside",
			poly: geom.NewPolygon(geom.Square(0, 0, 4), geom.Square(10, 10, 1)),
			want: "hole 0 has point",
		},
		{
			name: "degenerate hole",
			poly: geom.NewPolygon(geom.Square(0, 0, 4), geom.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}}),
			want: "hole 0 has 2 points",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildValidStack()
			g.MustLookup("middle").Polygon = tt.poly
			res := ValidateAll(g)
			if !hasError(res.Errors, tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, res.Errors)
			}
			for _, e := range res.Errors {
				if e.Subject != "middle" {
					t.Errorf("finding on %q, want middle", e.Subject)
				}
			}
		})
	}
}

func TestHoleInsideExteriorIsValid(t *testing.T) {
	g := buildValidStack()
	g.MustLookup("bottom").Polygon = geom.NewPolygon(geom.Square(0, 0, 4), geom.Square(0, 0, 1))
	if res := ValidateAll(g); !res.OK() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestGeometricWarnings(t *testing.T) {
	g := buildValidStack()
	ring := geom.Square(0, 0, 3)
	ring = append(ring, ring[0])
	g.MustLookup("middle").Polygon = geom.NewPolygon(ring)
	g.AddSection(square("far", 30, 100, 1))
	g.AddLink("top", "far")

	res := ValidateAll(g)
	if !res.OK() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
	if !hasWarning(res.Warnings, "exterior has 1 repeated points") {
		t.Errorf("expected repeated point warning, got %v", res.Warnings)
	}
	if !hasWarning(res.Warnings, "do not overlap") {
		t.Errorf("expected disjoint link warning, got %v", res.Warnings)
	}
}
