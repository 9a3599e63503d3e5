// Package quickshift implements quickshift mode-seeking segmentation.
//
// Every pixel is a point in a five-dimensional space made of its Lab color
// (scaled by a ratio) and its row and column. A Gaussian Parzen density is
// estimated at each point; each pixel then links to the nearest pixel of
// strictly higher density within a window of radius ceil(3*kernelSize).
// Links longer than a distance cutoff are removed and every pixel is mapped
// to the root of its tree. The root's linear index is the pixel's label.
//
// Segment runs the whole pipeline. The building blocks (Density, Forest)
// are exported so callers can inspect intermediate state.
package quickshift

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ironsheep/segment-mcp/internal/imaging"
	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// MaxKernelSize is the largest kernel whose window fits in an int32.
const MaxKernelSize = math.MaxInt32 / 3

// Params controls a quickshift run.
type Params struct {
	// KernelSize is the standard deviation of the Gaussian density kernel.
	KernelSize float64 `json:"kernel_size"`
	// MaxDist is the longest link kept in the final forest.
	MaxDist float64 `json:"max_dist"`
	// Ratio weights color against position; it multiplies the Lab values.
	Ratio float64 `json:"ratio"`
	// Seed feeds the tie-break noise. Equal seeds give equal labels.
	Seed int64 `json:"seed"`
}

// DefaultParams returns kernel size 3, cutoff 20, ratio 0.5 and seed 42.
func DefaultParams() Params {
	return Params{KernelSize: 3, MaxDist: 20, Ratio: 0.5, Seed: 42}
}

// Validate rejects parameters for which the computation is undefined.
func (p Params) Validate() error {
	if !(p.KernelSize > 0) || math.IsInf(p.KernelSize, 0) {
		return segerr.Parameter("kernel size must be positive and finite, got %v", p.KernelSize)
	}
	if p.KernelSize > MaxKernelSize {
		return segerr.Parameter("kernel size must be at most %d, got %v", MaxKernelSize, p.KernelSize)
	}
	if math.IsNaN(p.MaxDist) || p.MaxDist < 0 {
		return segerr.Parameter("max distance must be non-negative, got %v", p.MaxDist)
	}
	if math.IsNaN(p.Ratio) || math.IsInf(p.Ratio, 0) {
		return segerr.Parameter("ratio must be finite, got %v", p.Ratio)
	}
	return nil
}

// Segment runs quickshift over buf and returns one label per pixel in
// row-major order. Labels are the linear indices of tree roots, so they are
// sparse; see labels.RelabelSequential to compress them.
func Segment(ctx context.Context, buf *imaging.PixelBuffer, p Params) ([]int, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	width, height := buf.Width, buf.Height

	feat := imaging.LabFeatures(buf, p.Ratio)
	density, err := Density(ctx, feat, width, height, p.KernelSize, rand.New(rand.NewSource(p.Seed)))
	if err != nil {
		return nil, errors.Wrap(err, "density")
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("quickshift density computed")

	forest := NewForest(width, height)
	if err := forest.Shift(ctx, feat, density, p.KernelSize); err != nil {
		return nil, errors.Wrap(err, "shift")
	}
	cut := forest.Cut(p.MaxDist)
	sweeps, err := forest.Flatten(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "flatten")
	}

	logger.Debug().
		Int("width", width).
		Int("height", height).
		Int("kernel_width", KernelWidth(p.KernelSize)).
		Int("links_cut", cut).
		Int("sweeps", sweeps).
		Int("segments", forest.Roots()).
		Dur("elapsed", time.Since(start)).
		Msg("quickshift finished")

	return forest.Parent, nil
}
