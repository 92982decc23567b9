package graph

import (
	"fmt"

	"github.com/chazu/morphmesh/pkg/geom"
	"github.com/chazu/morphmesh/pkg/kernel"
)

// Section is a named planar polygon at height Z.
type Section struct {
	Name    string       `json:"name"`
	Z       float64      `json:"z"`
	Upper   bool         `json:"upper"` // forces this section on top of any link
	Polygon geom.Polygon `json:"polygon"`
}

// Kernel returns the section in the form reconstruction kernels accept.
func (s *Section) Kernel() kernel.Section {
	return kernel.Section{Name: s.Name, Z: s.Z, Upper: s.Upper, Polygon: s.Polygon}
}

// Link asks for a surface between two sections, named by section name.
// The order is a hint only; the kernel decides which side is on top.
type Link struct {
	Lower string `json:"lower"`
	Upper string `json:"upper"`
}

// String returns "lower-upper".
func (l Link) String() string {
	return l.Lower + "-" + l.Upper
}

// SectionGraph is the data produced by evaluating a section script. It is
// never mutated after evaluation; each evaluation produces a new graph.
type SectionGraph struct {
	Sections  []*Section     `json:"sections"`
	Links     []Link         `json:"links"`
	NameIndex map[string]int `json:"name_index"` // first section with each name
	Version   uint64         `json:"version"`
}

// New creates an empty SectionGraph.
func New() *SectionGraph {
	return &SectionGraph{NameIndex: make(map[string]int)}
}

// AddSection appends a section. It does not check for duplicate names;
// the first section with a name keeps the index entry and Validate reports
// the rest.
func (g *SectionGraph) AddSection(s *Section) {
	if _, ok := g.NameIndex[s.Name]; !ok && s.Name != "" {
		g.NameIndex[s.Name] = len(g.Sections)
	}
	g.Sections = append(g.Sections, s)
}

// AddLink appends a link. References are resolved at validation time.
func (g *SectionGraph) AddLink(lower, upper string) {
	g.Links = append(g.Links, Link{Lower: lower, Upper: upper})
}

// Lookup returns the section with the given name, or nil.
func (g *SectionGraph) Lookup(name string) *Section {
	i, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Sections[i]
}

// MustLookup returns the section with the given name, or panics.
func (g *SectionGraph) MustLookup(name string) *Section {
	s := g.Lookup(name)
	if s == nil {
		panic(fmt.Sprintf("graph: no section named %q", name))
	}
	return s
}

// Resolve returns both sections of a link.
func (g *SectionGraph) Resolve(l Link) (lower, upper *Section, err error) {
	lower, upper = g.Lookup(l.Lower), g.Lookup(l.Upper)
	switch {
	case lower == nil:
		return nil, nil, fmt.Errorf("graph: link %s: no section named %q", l, l.Lower)
	case upper == nil:
		return nil, nil, fmt.Errorf("graph: link %s: no section named %q", l, l.Upper)
	}
	return lower, upper, nil
}

// SectionCount returns the number of sections.
func (g *SectionGraph) SectionCount() int {
	return len(g.Sections)
}

// LinkCount returns the number of links.
func (g *SectionGraph) LinkCount() int {
	return len(g.Links)
}

// Linked returns the names of sections that appear in at least one link.
func (g *SectionGraph) Linked() map[string]bool {
	out := make(map[string]bool)
	for _, l := range g.Links {
		out[l.Lower] = true
		out[l.Upper] = true
	}
	return out
}
