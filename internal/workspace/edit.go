package workspace

import (
	"image"

	"github.com/ironsheep/segment-mcp/internal/imaging"
	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// Promote copies StageMerged into StageManual, for the whole image or the
// focus zone rect.
func (w *Workspace) Promote(rect *image.Rectangle) error {
	area, whole, err := w.region(rect)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if whole {
		copy(w.stages[StageManual], w.stages[StageMerged])
		return nil
	}
	width, height := w.base.Width, w.base.Height
	zone, err := imaging.CropLabels(w.stages[StageMerged], width, height, area)
	if err != nil {
		return err
	}
	return imaging.PasteLabels(w.stages[StageManual], width, height, zone, area, 0)
}

// Paint sets the label of every pixel in points and in rects to label.
// Nothing is written if any point or rectangle lies outside the image.
func (w *Workspace) Paint(stage Stage, label int, points []image.Point, rects ...image.Rectangle) error {
	if err := stage.validate(); err != nil {
		return err
	}
	if label < 0 {
		return segerr.Parameter("label must be non-negative, got %d", label)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paint(stage, label, points, rects)
}

// PaintNew paints points and rects in StageManual with a label not used by
// any stage and returns that label.
func (w *Workspace) PaintNew(points []image.Point, rects ...image.Rectangle) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	label := w.maxLabel(-1) + 1
	if err := w.paint(StageManual, label, points, rects); err != nil {
		return 0, err
	}
	return label, nil
}

func (w *Workspace) paint(stage Stage, label int, points []image.Point, rects []image.Rectangle) error {
	bounds := w.Bounds()
	for _, p := range points {
		if !p.In(bounds) {
			return segerr.Dimensions("point %v outside image %v", p, bounds)
		}
	}
	for _, r := range rects {
		if r.Empty() || !r.In(bounds) {
			return segerr.Dimensions("region %v outside image %v", r, bounds)
		}
	}

	width := w.base.Width
	dst := w.stages[stage]
	for _, p := range points {
		dst[p.Y*width+p.X] = label
	}
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := dst[y*width+r.Min.X : y*width+r.Max.X]
			for i := range row {
				row[i] = label
			}
		}
	}
	return nil
}

// Join relabels every pixel of stage carrying one of ids with ids[0] and
// returns the number of pixels changed.
func (w *Workspace) Join(stage Stage, ids []int) (int, error) {
	if err := stage.validate(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, segerr.Parameter("join needs at least one label")
	}
	master := ids[0]
	absorbed := make(map[int]struct{}, len(ids))
	for _, id := range ids[1:] {
		if id != master {
			absorbed[id] = struct{}{}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	changed := 0
	dst := w.stages[stage]
	for i, l := range dst {
		if _, ok := absorbed[l]; ok {
			dst[i] = master
			changed++
		}
	}
	return changed, nil
}
