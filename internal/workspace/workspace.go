// Package workspace holds the segmentation state of one image.
//
// A Workspace keeps the base image, a denoised copy and three label images
// that share one label space:
//
//   - StageQuickshift: raw quickshift segments
//   - StageMerged: quickshift segments after region adjacency merging
//   - StageManual: hand-edited labels (painting, joining)
//
// Every stage can be recomputed for the whole image or for a rectangular
// focus zone, in which case only the pixels inside the zone change. After
// quickshift runs, all three stages are relabelled together so that equal
// labels mean the same segment in every stage.
package workspace

import (
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/ironsheep/segment-mcp/internal/imaging"
	"github.com/ironsheep/segment-mcp/internal/labels"
	"github.com/ironsheep/segment-mcp/internal/quickshift"
	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// Stage selects one of the workspace label images.
type Stage int

const (
	StageQuickshift Stage = iota
	StageMerged
	StageManual

	numStages = 3
)

var stageNames = [numStages]string{"quickshift", "merged", "manual"}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return "unknown"
	}
	return stageNames[s]
}

func (s Stage) validate() error {
	if s < 0 || s >= numStages {
		return errors.Wrapf(segerr.ErrUnknownStage, "stage %d", int(s))
	}
	return nil
}

// ParseStage returns the stage named name ("quickshift", "merged" or
// "manual").
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, errors.Wrapf(segerr.ErrUnknownStage, "stage %q", name)
}

// Config carries the defaults applied by a workspace.
type Config struct {
	Params    quickshift.Params
	Threshold float64
	// Passes is the number of merge sweeps; zero or less sweeps until no
	// merge happens.
	Passes   int
	Denoiser imaging.Denoiser
}

// DefaultConfig returns the quickshift defaults, a merge threshold of 0.1,
// a single merge sweep and no denoising.
func DefaultConfig() Config {
	return Config{
		Params:    quickshift.DefaultParams(),
		Threshold: 0.1,
		Passes:    1,
		Denoiser:  imaging.NopDenoiser{},
	}
}

// Option configures a Workspace.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithDenoiser sets the filter used by Denoise and DenoiseRegion.
func WithDenoiser(d imaging.Denoiser) Option {
	return func(c *Config) { c.Denoiser = d }
}

// WithParams sets the default quickshift parameters.
func WithParams(p quickshift.Params) Option {
	return func(c *Config) { c.Params = p }
}

// WithThreshold sets the default merge threshold.
func WithThreshold(t float64) Option {
	return func(c *Config) { c.Threshold = t }
}

// Workspace is safe for concurrent use; operations are serialized.
type Workspace struct {
	mu       sync.Mutex
	cfg      Config
	base     *imaging.PixelBuffer
	denoised *imaging.PixelBuffer
	stages   [numStages][]int
}

// New creates a workspace over img. The denoised copy starts identical to
// the base image and every stage starts as a single segment labelled 0.
func New(img image.Image, opts ...Option) (*Workspace, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Denoiser == nil {
		cfg.Denoiser = imaging.NopDenoiser{}
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	base, err := imaging.NewPixelBuffer(img)
	if err != nil {
		return nil, err
	}
	w := &Workspace{
		cfg:      cfg,
		base:     base,
		denoised: &imaging.PixelBuffer{Width: base.Width, Height: base.Height, Pix: append([]uint8(nil), base.Pix...)},
	}
	for i := range w.stages {
		w.stages[i] = make([]int, base.Len())
	}
	return w, nil
}

// Config returns the workspace defaults.
func (w *Workspace) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Width returns the image width in pixels.
func (w *Workspace) Width() int { return w.base.Width }

// Height returns the image height in pixels.
func (w *Workspace) Height() int { return w.base.Height }

// Bounds returns the image rectangle, anchored at the origin.
func (w *Workspace) Bounds() image.Rectangle {
	return image.Rect(0, 0, w.base.Width, w.base.Height)
}

// Base returns a copy of the original image.
func (w *Workspace) Base() *image.NRGBA {
	return cloneBuffer(w.base).Image()
}

// Denoised returns a copy of the denoised image.
func (w *Workspace) Denoised() *image.NRGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneBuffer(w.denoised).Image()
}

// Labels returns a copy of the label image of stage.
func (w *Workspace) Labels(stage Stage) ([]int, error) {
	if err := stage.validate(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int(nil), w.stages[stage]...), nil
}

// SegmentCount returns the number of distinct labels in stage.
func (w *Workspace) SegmentCount(stage Stage) (int, error) {
	if err := stage.validate(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return labels.Count(w.stages[stage]), nil
}

// Properties measures one segment of stage.
func (w *Workspace) Properties(stage Stage, label int) (*imaging.SegmentProperties, error) {
	if err := stage.validate(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return imaging.MeasureSegment(w.stages[stage], w.base.Width, w.base.Height, label)
}

// AllProperties measures every segment of stage, ordered by label.
func (w *Workspace) AllProperties(stage Stage) ([]imaging.SegmentProperties, error) {
	if err := stage.validate(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return imaging.MeasureSegments(w.stages[stage], w.base.Width, w.base.Height)
}

// region resolves an optional focus zone. A nil rect, or one equal to the
// image bounds, selects the whole image.
func (w *Workspace) region(rect *image.Rectangle) (image.Rectangle, bool, error) {
	bounds := w.Bounds()
	if rect == nil || *rect == bounds {
		return bounds, true, nil
	}
	if rect.Empty() || !rect.In(bounds) {
		return image.Rectangle{}, false, segerr.Dimensions("focus zone %v outside image %v", *rect, bounds)
	}
	return *rect, false, nil
}

// maxLabel is the largest label over every stage except skip.
func (w *Workspace) maxLabel(skip Stage) int {
	var arrays [][]int
	for s := range w.stages {
		if Stage(s) != skip {
			arrays = append(arrays, w.stages[s])
		}
	}
	return labels.MaxLabel(arrays...)
}

func cloneBuffer(b *imaging.PixelBuffer) *imaging.PixelBuffer {
	return &imaging.PixelBuffer{Width: b.Width, Height: b.Height, Pix: append([]uint8(nil), b.Pix...)}
}
