package quickshift

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/anthonynsimon/bild/parallel"
)

// Forest is a parent-pointer forest over the pixels of a width×height
// image. Parent[i] is the linear index (row*Width+col) of the pixel i links
// to, and Dist[i] the feature-space distance of that link.
type Forest struct {
	Width  int
	Height int
	Parent []int
	Dist   []float64
}

// NewForest returns a forest in which every pixel is its own root at
// distance zero.
func NewForest(width, height int) *Forest {
	n := width * height
	f := &Forest{
		Width:  width,
		Height: height,
		Parent: make([]int, n),
		Dist:   make([]float64, n),
	}
	for i := range f.Parent {
		f.Parent[i] = i
	}
	return f
}

// Shift links every pixel to its nearest neighbor of strictly higher
// density inside the search window.
//
// Among the window pixels q with density[q] > density[p] the one with the
// smallest joint distance wins; on equal distances the first in scan order
// (row-major over the window) is kept. Dist[p] receives that distance. A
// pixel with no denser neighbor keeps itself as parent at distance zero.
func (f *Forest) Shift(ctx context.Context, feat, density []float64, kernelSize float64) error {
	width, height := f.Width, f.Height
	kw := KernelWidth(kernelSize)

	parallel.Line(height, func(start, end int) {
		for r := start; r < end; r++ {
			if ctx.Err() != nil {
				return
			}
			rMin, rMax := max(r-kw, 0), min(r+kw+1, height)
			for c := 0; c < width; c++ {
				cMin, cMax := max(c-kw, 0), min(c+kw+1, width)
				p := r*width + c
				current := density[p]
				closest := math.Inf(1)
				parent := p
				for r2 := rMin; r2 < rMax; r2++ {
					for c2 := cMin; c2 < cMax; c2++ {
						q := r2*width + c2
						if density[q] <= current {
							continue
						}
						if d := jointDist2(feat, width, r, c, r2, c2); d < closest {
							closest = d
							parent = q
						}
					}
				}
				f.Parent[p] = parent
				if parent == p {
					f.Dist[p] = 0
				} else {
					f.Dist[p] = math.Sqrt(closest)
				}
			}
		}
	})
	return ctx.Err()
}

// Cut turns every pixel whose link is longer than maxDist back into a root
// and returns how many links were removed.
func (f *Forest) Cut(maxDist float64) int {
	var cut atomic.Int64
	parallel.Line(len(f.Parent), func(start, end int) {
		n := 0
		for i := start; i < end; i++ {
			if f.Dist[i] > maxDist && f.Parent[i] != i {
				f.Parent[i] = i
				n++
			}
		}
		cut.Add(int64(n))
	})
	return int(cut.Load())
}

// Flatten compresses every path so that each pixel points directly at its
// root.
//
// Sweeps run in index order, replacing parent[j] by parent[parent[j]] in
// place, until a sweep changes nothing. Each sweep at least halves the depth
// of every path, so the number of sweeps is logarithmic in the height of
// the forest. ctx is checked between sweeps. Returns the number of sweeps
// performed, including the final one that changed nothing.
func (f *Forest) Flatten(ctx context.Context) (int, error) {
	parent := f.Parent
	sweeps := 0
	for changed := true; changed; {
		if err := ctx.Err(); err != nil {
			return sweeps, err
		}
		changed = false
		for j, old := range parent {
			parent[j] = parent[old]
			if parent[j] != old {
				changed = true
			}
		}
		sweeps++
	}
	return sweeps, nil
}

// IsFlat reports whether parent[parent[i]] == parent[i] for every pixel.
func (f *Forest) IsFlat() bool {
	for _, p := range f.Parent {
		if f.Parent[p] != p {
			return false
		}
	}
	return true
}

// Roots returns the number of pixels that are their own parent.
func (f *Forest) Roots() int {
	n := 0
	for i, p := range f.Parent {
		if i == p {
			n++
		}
	}
	return n
}
