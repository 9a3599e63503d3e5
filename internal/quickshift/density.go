package quickshift

import (
	"context"
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/parallel"
)

// tieBreakScale is the standard deviation of the noise added to every
// density so that no two pixels have exactly equal density.
const tieBreakScale = 1e-5

// KernelWidth returns the half-size of the square search window for a
// Gaussian of standard deviation kernelSize: ceil(3*kernelSize), capped at
// math.MaxInt32 so window bounds cannot overflow.
func KernelWidth(kernelSize float64) int {
	w := math.Ceil(3 * kernelSize)
	if !(w < math.MaxInt32) {
		return math.MaxInt32
	}
	return int(w)
}

// Density estimates, for every pixel, the Parzen density of the joint
// color-spatial feature space with a Gaussian kernel of standard deviation
// kernelSize.
//
// feat holds three values per pixel (see imaging.LabFeatures). For pixel p
// the sum runs over every pixel q of the window |row(p)-row(q)| <= w,
// |col(p)-col(q)| <= w (w = KernelWidth, clipped to the image) of
// exp(-d(p,q)^2 / (2*kernelSize^2)), where d is the five-dimensional
// distance over the three features plus row and column.
//
// When rng is non-nil each density starts from a N(0, 1e-5) draw instead of
// zero, which breaks exact ties without changing the ordering of distinct
// densities. Rows are processed in parallel; every pixel's density is
// written by exactly one goroutine.
func Density(ctx context.Context, feat []float64, width, height int, kernelSize float64, rng *rand.Rand) ([]float64, error) {
	density := make([]float64, width*height)
	if rng != nil {
		for i := range density {
			density[i] = tieBreakScale * rng.NormFloat64()
		}
	}

	kw := KernelWidth(kernelSize)
	inv := -0.5 / (kernelSize * kernelSize)

	parallel.Line(height, func(start, end int) {
		for r := start; r < end; r++ {
			if ctx.Err() != nil {
				return
			}
			rMin, rMax := max(r-kw, 0), min(r+kw+1, height)
			for c := 0; c < width; c++ {
				cMin, cMax := max(c-kw, 0), min(c+kw+1, width)
				var sum float64
				for r2 := rMin; r2 < rMax; r2++ {
					for c2 := cMin; c2 < cMax; c2++ {
						sum += math.Exp(jointDist2(feat, width, r, c, r2, c2) * inv)
					}
				}
				density[r*width+c] += sum
			}
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return density, nil
}

// jointDist2 is the squared five-dimensional distance between pixels
// (r, c) and (r2, c2).
func jointDist2(feat []float64, width, r, c, r2, c2 int) float64 {
	i := (r*width + c) * 3
	j := (r2*width + c2) * 3
	d0 := feat[i] - feat[j]
	d1 := feat[i+1] - feat[j+1]
	d2 := feat[i+2] - feat[j+2]
	dr := float64(r - r2)
	dc := float64(c - c2)
	return d0*d0 + d1*d1 + d2*d2 + dr*dr + dc*dc
}
