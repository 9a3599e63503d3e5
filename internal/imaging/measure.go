package imaging

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// Point is a sub-pixel position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned box; (X1,Y1) inclusive, (X2,Y2) exclusive.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// SegmentProperties describes one labeled segment of a label image.
type SegmentProperties struct {
	ID       int    `json:"id"`
	Area     int    `json:"area"`
	Centroid Point  `json:"centroid"`
	Bounds   Bounds `json:"bounds"`
}

// MeasureSegment computes the properties of the pixels carrying label.
// A label with no pixels yields zero Area and zero-valued geometry.
func MeasureSegment(labels []int, width, height, label int) (*SegmentProperties, error) {
	if width <= 0 || height <= 0 || len(labels) != width*height {
		return nil, segerr.Dimensions("label image holds %d labels, want %d for %dx%d", len(labels), width*height, width, height)
	}

	acc := newSegmentAccumulator(label)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y*width+x] == label {
				acc.add(x, y)
			}
		}
	}
	return acc.result(), nil
}

// MeasureSegments computes the properties of every label in one pass,
// sorted by label.
func MeasureSegments(labels []int, width, height int) ([]SegmentProperties, error) {
	if width <= 0 || height <= 0 || len(labels) != width*height {
		return nil, segerr.Dimensions("label image holds %d labels, want %d for %dx%d", len(labels), width*height, width, height)
	}

	accs := make(map[int]*segmentAccumulator)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			l := labels[y*width+x]
			acc, ok := accs[l]
			if !ok {
				acc = newSegmentAccumulator(l)
				accs[l] = acc
			}
			acc.add(x, y)
		}
	}

	out := make([]SegmentProperties, 0, len(accs))
	for _, acc := range accs {
		out = append(out, *acc.result())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Anchors returns the pixel nearest each segment centroid, for annotation.
func Anchors(props []SegmentProperties) map[int]image.Point {
	out := make(map[int]image.Point, len(props))
	for _, p := range props {
		out[p.ID] = image.Pt(int(math.Round(p.Centroid.X)), int(math.Round(p.Centroid.Y)))
	}
	return out
}

type segmentAccumulator struct {
	id                     int
	area                   int
	sumX, sumY             float64
	minX, minY, maxX, maxY int
}

func newSegmentAccumulator(id int) *segmentAccumulator {
	return &segmentAccumulator{id: id, minX: math.MaxInt, minY: math.MaxInt, maxX: -1, maxY: -1}
}

func (a *segmentAccumulator) add(x, y int) {
	a.area++
	a.sumX += float64(x)
	a.sumY += float64(y)
	a.minX = min(a.minX, x)
	a.minY = min(a.minY, y)
	a.maxX = max(a.maxX, x)
	a.maxY = max(a.maxY, y)
}

func (a *segmentAccumulator) result() *SegmentProperties {
	if a.area == 0 {
		return &SegmentProperties{ID: a.id}
	}
	return &SegmentProperties{
		ID:   a.id,
		Area: a.area,
		Centroid: Point{
			X: math.Round(a.sumX/float64(a.area)*100) / 100,
			Y: math.Round(a.sumY/float64(a.area)*100) / 100,
		},
		Bounds: Bounds{X1: a.minX, Y1: a.minY, X2: a.maxX + 1, Y2: a.maxY + 1},
	}
}
