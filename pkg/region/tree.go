package region

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/morphmesh/pkg/geom"
)

// minExtent pads degenerate (axis-parallel) bounding boxes, which rtreego
// rejects.
const minExtent = 1e-9

// indexedSegment adapts a contour segment to rtreego.Spatial.
type indexedSegment struct {
	seg  geom.Segment
	rect rtreego.Rect
}

func (s *indexedSegment) Bounds() rtreego.Rect {
	return s.rect
}

func boxOf(a, b geom.Point) rtreego.Rect {
	lo := rtreego.Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y)}
	lengths := []float64{
		math.Max(math.Abs(a.X-b.X), minExtent),
		math.Max(math.Abs(a.Y-b.Y), minExtent),
	}
	r, err := rtreego.NewRect(lo, lengths)
	if err != nil {
		// Lengths are clamped positive, so this is unreachable.
		panic(err)
	}
	return r
}

// SliceChordRTree indexes contour segments so that candidate slice chords can
// be checked against them quickly. A slice chord is valid when it neither
// crosses a contour segment nor passes through a contour vertex.
type SliceChordRTree struct {
	tree *rtreego.Rtree
	size int
}

// NewSliceChordRTree indexes the given contour segments.
func NewSliceChordRTree(segments []geom.Segment) *SliceChordRTree {
	t := &SliceChordRTree{tree: rtreego.NewTree(2, 25, 50)}
	for _, s := range segments {
		if s.IsDegenerate() {
			continue
		}
		t.tree.Insert(&indexedSegment{seg: s, rect: boxOf(s.A, s.B)})
		t.size++
	}
	return t
}

// Size returns the number of indexed segments.
func (t *SliceChordRTree) Size() int {
	return t.size
}

// Crossing returns every indexed segment that the chord a-b crosses or
// touches away from the chord's own endpoints.
func (t *SliceChordRTree) Crossing(a, b geom.Point) []geom.Segment {
	chord := geom.Seg(a, b)
	var out []geom.Segment
	for _, obj := range t.tree.SearchIntersect(boxOf(a, b)) {
		s := obj.(*indexedSegment).seg
		if chordBlocked(chord, s) {
			out = append(out, s)
		}
	}
	return out
}

// Valid reports whether a-b is a usable slice chord.
func (t *SliceChordRTree) Valid(a, b geom.Point) bool {
	if a == b {
		return false
	}
	return len(t.Crossing(a, b)) == 0
}

func chordBlocked(chord, s geom.Segment) bool {
	hit := chord.Intersect(s)
	switch hit.Kind {
	case geom.NoIntersection:
		return false
	case geom.OverlapIntersection:
		return true
	default:
		// Meeting at a shared endpoint of the chord is allowed.
		return !chord.HasEndpoint(hit.P)
	}
}
