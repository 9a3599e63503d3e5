package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Denoiser is an image-to-image filter applied before segmentation.
//
// Quickshift is sensitive to pixel noise: every speckle becomes a density
// mode of its own. Smoothing first yields fewer, larger segments.
type Denoiser interface {
	Denoise(img image.Image) *image.NRGBA
}

// NopDenoiser returns an unmodified copy of its input.
type NopDenoiser struct{}

// Denoise implements Denoiser.
func (NopDenoiser) Denoise(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// GaussianDenoiser blurs with a Gaussian of standard deviation Sigma.
type GaussianDenoiser struct {
	Sigma float64
}

// Denoise implements Denoiser. A non-positive Sigma returns a copy.
func (d GaussianDenoiser) Denoise(img image.Image) *image.NRGBA {
	return imaging.Blur(img, d.Sigma)
}

// MedianDenoiser replaces each pixel by the median of its neighborhood.
// It preserves edges better than a Gaussian at the same radius.
type MedianDenoiser struct {
	Radius float64
}

// Denoise implements Denoiser.
func (d MedianDenoiser) Denoise(img image.Image) *image.NRGBA {
	if d.Radius <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Clone(effect.Median(img, d.Radius))
}

// NewDenoiser returns the denoiser registered under kind: "none", "gaussian"
// or "median". strength is the sigma or radius.
func NewDenoiser(kind string, strength float64) (Denoiser, error) {
	switch kind {
	case "", "none":
		return NopDenoiser{}, nil
	case "gaussian":
		return GaussianDenoiser{Sigma: strength}, nil
	case "median":
		return MedianDenoiser{Radius: strength}, nil
	default:
		return nil, fmt.Errorf("unknown denoiser: %s", kind)
	}
}
