package workspace

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ironsheep/segment-mcp/internal/imaging"
	"github.com/ironsheep/segment-mcp/internal/labels"
	"github.com/ironsheep/segment-mcp/internal/quickshift"
	"github.com/ironsheep/segment-mcp/internal/rag"
)

// SetDenoiser replaces the filter used by Denoise and DenoiseRegion. A nil
// d disables denoising.
func (w *Workspace) SetDenoiser(d imaging.Denoiser) {
	if d == nil {
		d = imaging.NopDenoiser{}
	}
	w.mu.Lock()
	w.cfg.Denoiser = d
	w.mu.Unlock()
}

// Denoise recomputes the denoised image from the base image.
func (w *Workspace) Denoise() {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.cfg.Denoiser.Denoise(w.base.Image())
	w.denoised = &imaging.PixelBuffer{Width: out.Rect.Dx(), Height: out.Rect.Dy(), Pix: out.Pix}
}

// DenoiseRegion denoises only the focus zone rect of the base image and
// writes the result over the same zone of the denoised image.
func (w *Workspace) DenoiseRegion(rect image.Rectangle) error {
	area, whole, err := w.region(&rect)
	if err != nil {
		return err
	}
	if whole {
		w.Denoise()
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	crop, err := imaging.CropImage(w.base.Image(), area)
	if err != nil {
		return err
	}
	w.denoised = imaging.PasteImage(w.denoised, w.cfg.Denoiser.Denoise(crop.Image()), area.Min)
	return nil
}

// Segment runs quickshift over the denoised image, or over the focus zone
// rect when it is non-nil, and stores the result in StageQuickshift.
//
// New segments are numbered above every label already in use, so a focus
// zone never reuses a label from outside it; then all stages are relabelled
// together. Returns the number of segments quickshift produced.
func (w *Workspace) Segment(ctx context.Context, rect *image.Rectangle, p quickshift.Params) (int, error) {
	area, whole, err := w.region(rect)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	buf := w.denoised
	if !whole {
		if buf, err = imaging.CropImage(w.denoised.Image(), area); err != nil {
			return 0, err
		}
	}

	raw, err := quickshift.Segment(ctx, buf, p)
	if err != nil {
		return 0, errors.Wrap(err, "quickshift")
	}

	qs := w.stages[StageQuickshift]
	if whole {
		offset := w.maxLabel(StageQuickshift) + 1
		m := labels.RelabelSequential(raw, offset)
		copy(qs, raw)
		w.finishSegment(ctx, area, m.Len(), start)
		return m.Len(), nil
	}

	offset := w.maxLabel(-1) + 1
	m := labels.RelabelSequential(raw, offset)
	if err := imaging.PasteLabels(qs, w.base.Width, w.base.Height, raw, area, 0); err != nil {
		return 0, err
	}
	w.finishSegment(ctx, area, m.Len(), start)
	return m.Len(), nil
}

func (w *Workspace) finishSegment(ctx context.Context, area image.Rectangle, segments int, start time.Time) {
	shared := labels.RelabelSequentialGlobal(w.stages[:], 0)
	zerolog.Ctx(ctx).Info().
		Str("zone", area.String()).
		Int("segments", segments).
		Int("labels_in_use", shared.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("quickshift stage updated")
}

// Merge copies StageQuickshift (or its focus zone) into StageMerged and
// merges adjacent segments whose mean denoised colors, normalized to [0,1],
// are closer than threshold. passes is the number of merge sweeps; zero or
// less repeats until nothing merges. Returns the number of merges.
//
// Merged segments keep one of their quickshift labels, so StageMerged stays
// in the shared label space.
func (w *Workspace) Merge(ctx context.Context, rect *image.Rectangle, threshold float64, passes int) (int, error) {
	area, whole, err := w.region(rect)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	width, height := w.base.Width, w.base.Height
	buf := w.denoised
	var zone []int
	if whole {
		zone = append([]int(nil), w.stages[StageQuickshift]...)
	} else {
		if zone, err = imaging.CropLabels(w.stages[StageQuickshift], width, height, area); err != nil {
			return 0, err
		}
		if buf, err = imaging.CropImage(w.denoised.Image(), area); err != nil {
			return 0, err
		}
	}

	m := labels.RelabelSequential(zone, 0)
	g, err := rag.Build(zone, area.Dx(), area.Dy(), m.Len())
	if err != nil {
		return 0, err
	}
	g.AccumulateAdjacency()
	if err := g.ComputeColors(ctx, imaging.NormalizedRGB(buf)); err != nil {
		return 0, errors.Wrap(err, "region colors")
	}
	merges, err := g.MergeUntilStable(ctx, threshold, passes)
	if err != nil {
		return 0, errors.Wrap(err, "merge")
	}
	if err := g.Relabel(zone); err != nil {
		return 0, err
	}

	originals := m.Originals()
	for i, l := range zone {
		zone[i] = originals[l]
	}
	if whole {
		copy(w.stages[StageMerged], zone)
	} else if err := imaging.PasteLabels(w.stages[StageMerged], width, height, zone, area, 0); err != nil {
		return 0, err
	}

	zerolog.Ctx(ctx).Info().
		Str("zone", area.String()).
		Float64("threshold", threshold).
		Int("regions", m.Len()).
		Int("merges", merges).
		Msg("merged stage updated")
	return merges, nil
}
