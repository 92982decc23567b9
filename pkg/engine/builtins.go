package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/graph"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPoint wraps a planar point.
type sexpPoint struct {
	p geom.Point
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g)", p.p.X, p.p.Y)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpRing wraps a closed ring. Holes come from `hole`, exteriors from
// `ring`, `square` and `circle`.
type sexpRing struct {
	ring geom.Ring
	hole bool
}

func (r *sexpRing) SexpString(ps *zygo.PrintState) string {
	kind := "ring"
	if r.hole {
		kind = "hole"
	}
	return fmt.Sprintf("(%s %d points)", kind, len(r.ring))
}
func (r *sexpRing) Type() *zygo.RegisteredType { return nil }

// sexpSectionRef names a section so it can be passed to `stitch`.
type sexpSectionRef struct {
	name string
}

func (s *sexpSectionRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(sectionref %q)", s.name)
}
func (s *sexpSectionRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool reads a boolean literal. Numbers count as true when non-zero.
func toBool(s zygo.Sexp) (bool, error) {
	switch s.SexpString(nil) {
	case "true":
		return true, nil
	case "false", "nil", "()":
		return false, nil
	}
	if f, err := toFloat64(s); err == nil {
		return f != 0, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toPoint extracts a point from a sexpPoint.
func toPoint(s zygo.Sexp) (geom.Point, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.p, nil
	}
	return geom.Point{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

// toSectionName accepts a section reference or a plain name string.
func toSectionName(s zygo.Sexp) (string, error) {
	if ref, ok := s.(*sexpSectionRef); ok {
		return ref.name, nil
	}
	name, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected section reference or name: %w", err)
	}
	return name, nil
}

// toPoints flattens points, rings and lists of points into one ring.
func toPoints(args []zygo.Sexp) (geom.Ring, error) {
	var ring geom.Ring
	for i, a := range args {
		if p, err := toPoint(a); err == nil {
			ring = append(ring, p)
			continue
		}
		if r, ok := a.(*sexpRing); ok {
			ring = append(ring, r.ring...)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: expected point or list of points, got %T (%s)", i, a, a.SexpString(nil))
		}
		nested, err := toPoints(items)
		if err != nil {
			return nil, err
		}
		ring = append(ring, nested...)
	}
	return ring, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// DefaultCircleSegments is the segment count `circle` uses when none is given.
const DefaultCircleSegments = 32

// registerBuiltins installs the section DSL builtins into a zygomys
// environment. The builtins populate g during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.SectionGraph) {

	// -----------------------------------------------------------------------
	// (pt 0 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("pt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("pt requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: y: %w", err)
		}
		return &sexpPoint{p: geom.Pt(x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (ring (pt 0 0) (pt 1 0) (pt 1 1)) and (hole ...)
	// -----------------------------------------------------------------------
	ring := func(hole bool) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pts, err := toPoints(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			if len(pts) < 3 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 3 points, got %d", name, len(pts))
			}
			return &sexpRing{ring: pts, hole: hole}, nil
		}
	}
	env.AddFunction("ring", ring(false))
	env.AddFunction("hole", ring(true))

	// -----------------------------------------------------------------------
	// (square cx cy size)
	// -----------------------------------------------------------------------
	env.AddFunction("square", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("square requires cx, cy and size, got %d arguments", len(args))
		}
		var v [3]float64
		for i, label := range []string{"cx", "cy", "size"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("square: %s: %w", label, err)
			}
			v[i] = f
		}
		if v[2] <= 0 {
			return zygo.SexpNull, fmt.Errorf("square: size must be positive, got %g", v[2])
		}
		return &sexpRing{ring: geom.Square(v[0], v[1], v[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (circle cx cy radius :segments 24)
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("circle requires cx, cy and radius, got %d arguments", len(pa.positional))
		}
		var v [3]float64
		for i, label := range []string{"cx", "cy", "radius"} {
			f, err := toFloat64(pa.positional[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circle: %s: %w", label, err)
			}
			v[i] = f
		}
		if v[2] <= 0 {
			return zygo.SexpNull, fmt.Errorf("circle: radius must be positive, got %g", v[2])
		}
		n := DefaultCircleSegments
		if s, ok := pa.kw["segments"]; ok {
			f, err := toFloat64(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circle: segments: %w", err)
			}
			n = int(f)
		}
		if n < 3 {
			return zygo.SexpNull, fmt.Errorf("circle: segments must be at least 3, got %d", n)
		}
		r := make(geom.Ring, n)
		for i := range r {
			a := 2 * math.Pi * float64(i) / float64(n)
			r[i] = geom.Pt(v[0]+v[2]*math.Cos(a), v[1]+v[2]*math.Sin(a))
		}
		return &sexpRing{ring: r}, nil
	})

	// -----------------------------------------------------------------------
	// (section "name" :z 10 :upper false (ring ...) (hole ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("section", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("section requires a name and an exterior ring")
		}

		secName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("section: name: %w", err)
		}
		s := &graph.Section{Name: secName}

		if v, ok := pa.kw["z"]; ok {
			z, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("section %q: z: %w", secName, err)
			}
			s.Z = z
		}
		if v, ok := pa.kw["upper"]; ok {
			up, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("section %q: upper: %w", secName, err)
			}
			s.Upper = up
		}

		for i, arg := range pa.positional[1:] {
			r, ok := arg.(*sexpRing)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("section %q: argument %d: expected ring or hole, got %T (%s)",
					secName, i+1, arg, arg.SexpString(nil))
			}
			switch {
			case r.hole:
				if s.Polygon.Exterior == nil {
					return zygo.SexpNull, fmt.Errorf("section %q: hole before exterior ring", secName)
				}
				s.Polygon.Holes = append(s.Polygon.Holes, r.ring)
			case s.Polygon.Exterior != nil:
				return zygo.SexpNull, fmt.Errorf("section %q: more than one exterior ring", secName)
			default:
				s.Polygon.Exterior = r.ring
			}
		}
		if s.Polygon.Exterior == nil {
			return zygo.SexpNull, fmt.Errorf("section %q: no exterior ring", secName)
		}

		g.AddSection(s)
		return &sexpSectionRef{name: secName}, nil
	})

	// -----------------------------------------------------------------------
	// (stitch "base" "top") or (stitch base top)
	// -----------------------------------------------------------------------
	env.AddFunction("stitch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("stitch requires exactly 2 sections, got %d", len(args))
		}
		a, err := toSectionName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stitch: first: %w", err)
		}
		b, err := toSectionName(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stitch: second: %w", err)
		}
		g.AddLink(a, b)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (loft a b c ...) stitches each consecutive pair.
	// -----------------------------------------------------------------------
	env.AddFunction("loft", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("loft requires at least 2 sections, got %d", len(args))
		}
		names := make([]string, len(args))
		for i, a := range args {
			n, err := toSectionName(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("loft: section %d: %w", i, err)
			}
			names[i] = n
		}
		for i := 1; i < len(names); i++ {
			g.AddLink(names[i-1], names[i])
		}
		return zygo.SexpNull, nil
	})
}
