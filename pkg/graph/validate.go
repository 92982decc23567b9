package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// reconstruction or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks reconstruction
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Subject  string             // section name or link, empty if graph-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Subject, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Subject string
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs all Tier 1 structural checks on the section graph and
// returns every finding. An empty slice means the graph is structurally
// sound. It never mutates the graph.
func Validate(g *SectionGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateLinks(g)...)
	errs = append(errs, validateUnlinked(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings.
func ValidateAll(g *SectionGraph) ValidationResult {
	// Tier 1: structural validation.
	tier1 := Validate(g)

	// Tier 2: geometric validation.
	tier2Errs, tier2Warnings := validateGeometry(g)

	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Subject: e.Subject,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)

	return result
}

// validateNames checks that every section has a name and no two share one.
func validateNames(g *SectionGraph) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, s := range g.Sections {
		if s.Name == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("section %d has no name", i),
				Severity: SeverityError,
			})
			continue
		}
		if seen[s.Name] {
			errs = append(errs, ValidationError{
				Subject:  s.Name,
				Message:  "duplicate section name",
				Severity: SeverityError,
			})
		}
		seen[s.Name] = true
	}

	return errs
}

// validateLinks checks that every link names two distinct existing sections
// that can be ordered into a lower and an upper.
func validateLinks(g *SectionGraph) []ValidationError {
	var errs []ValidationError
	seen := make(map[[2]string]bool)

	for _, l := range g.Links {
		subject := "link " + l.String()
		fail := func(format string, args ...interface{}) {
			errs = append(errs, ValidationError{
				Subject:  subject,
				Message:  fmt.Sprintf(format, args...),
				Severity: SeverityError,
			})
		}

		if l.Lower == l.Upper {
			fail("links section %q to itself", l.Lower)
			continue
		}

		key := [2]string{l.Lower, l.Upper}
		if l.Upper < l.Lower {
			key = [2]string{l.Upper, l.Lower}
		}
		if seen[key] {
			errs = append(errs, ValidationError{
				Subject:  subject,
				Message:  "duplicate link; it will be reconstructed once",
				Severity: SeverityWarning,
			})
			continue
		}
		seen[key] = true

		a, b := g.Lookup(l.Lower), g.Lookup(l.Upper)
		if a == nil {
			fail("references missing section %q", l.Lower)
		}
		if b == nil {
			fail("references missing section %q", l.Upper)
		}
		if a == nil || b == nil {
			continue
		}
		if a.Z == b.Z {
			fail("both sections are at z=%g", a.Z)
		}
		if a.Upper && b.Upper {
			fail("both sections are marked upper")
		}
	}

	return errs
}

// validateUnlinked warns about sections no link uses.
func validateUnlinked(g *SectionGraph) []ValidationError {
	var errs []ValidationError
	linked := g.Linked()

	for _, s := range g.Sections {
		if s.Name != "" && !linked[s.Name] {
			errs = append(errs, ValidationError{
				Subject:  s.Name,
				Message:  "section is not part of any link",
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// UniqueLinks returns the links with duplicates (in either order) removed,
// keeping the first occurrence.
func UniqueLinks(g *SectionGraph) []Link {
	seen := make(map[[2]string]bool)
	var out []Link
	for _, l := range g.Links {
		key := [2]string{l.Lower, l.Upper}
		if l.Upper < l.Lower {
			key = [2]string{l.Upper, l.Lower}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
