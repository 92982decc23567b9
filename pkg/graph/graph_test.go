package graph

import (
	"testing"

	"github.com/chazu/morphmesh/pkg/geom"
)

func square(name string, z, cx, size float64) *Section {
	return &Section{Name: name, Z: z, Polygon: geom.NewPolygon(geom.Square(cx, 0, size))}
}

func TestNewGraphIsEmpty(t *testing.T) {
	g := New()
	if g.SectionCount() != 0 || g.LinkCount() != 0 {
		t.Errorf("new graph has %d sections, %d links", g.SectionCount(), g.LinkCount())
	}
	if g.NameIndex == nil {
		t.Error("NameIndex should be initialised")
	}
}

func TestLookup(t *testing.T) {
	g := New()
	g.AddSection(square("base", 0, 0, 1))
	g.AddSection(square("top", 10, 0, 1))
	g.AddSection(square("base", 20, 0, 1))

	if s := g.Lookup("top"); s == nil || s.Z != 10 {
		t.Errorf("Lookup(top) = %+v", s)
	}
	// The first section with a name keeps the index entry.
	if s := g.Lookup("base"); s == nil || s.Z != 0 {
		t.Errorf("Lookup(base) = %+v", s)
	}
	if g.Lookup("missing") != nil {
		t.Error("Lookup(missing) should be nil")
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup should panic on a missing name")
		}
	}()
	New().MustLookup("nope")
}

func TestResolve(t *testing.T) {
	g := New()
	g.AddSection(square("a", 0, 0, 1))
	g.AddSection(square("b", 5, 0, 1))

	lower, upper, err := g.Resolve(Link{Lower: "a", Upper: "b"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if lower.Name != "a" || upper.Name != "b" {
		t.Errorf("Resolve = %s, %s", lower.Name, upper.Name)
	}
	if _, _, err := g.Resolve(Link{Lower: "a", Upper: "c"}); err == nil {
		t.Error("Resolve should fail for a missing section")
	}
}

func TestSectionKernel(t *testing.T) {
	s := &Section{Name: "cap", Z: 3, Upper: true, Polygon: geom.NewPolygon(geom.Square(0, 0, 2))}
	k := s.Kernel()
	if k.Name != "cap" || k.Z != 3 || !k.Upper || len(k.Polygon.Exterior) != 4 {
		t.Errorf("Kernel() = %+v", k)
	}
}

func TestLinkedAndUniqueLinks(t *testing.T) {
	g := New()
	g.AddLink("a", "b")
	g.AddLink("b", "a")
	g.AddLink("b", "c")

	linked := g.Linked()
	for _, name := range []string{"a", "b", "c"} {
		if !linked[name] {
			t.Errorf("%s should be linked", name)
		}
	}

	unique := UniqueLinks(g)
	if len(unique) != 2 {
		t.Fatalf("UniqueLinks = %v, want 2 links", unique)
	}
	if unique[0].String() != "a-b" || unique[1].String() != "b-c" {
		t.Errorf("UniqueLinks = %v", unique)
	}
}
