// Package rag builds a region adjacency graph over a dense label image and
// greedily merges adjacent regions of similar mean color.
//
// A Graph is built once per label image, filled by AccumulateAdjacency and
// ComputeColors, mutated by zero or more Merge calls, and finally applied
// to the label image with Relabel. Storage is flat: the N×N adjacency and
// distance matrices are row-major slices indexed by i*N+j, so memory grows
// with the square of the region count. Compress labels first
// (labels.RelabelSequential) to keep N close to the number of segments.
package rag

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/segment-mcp/internal/labels"
	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// Region is the running summary of one region: its mean color and area in
// pixels.
type Region struct {
	Mean [3]float64
	Area int
}

// Graph is a region adjacency graph over N regions.
//
// adj counts 4-connected pixel pairs between regions, including same-region
// pairs on the diagonal, which merging never reads. dist holds the
// Euclidean distance between mean colors and is only meaningful where adj
// is positive. mapping[k] is always the current representative of region k.
type Graph struct {
	n       int
	width   int
	height  int
	labels  []int
	adj     []int
	dist    []float64
	regions []Region
	mapping []int
}

// Build allocates a graph for n regions over labels, a width×height label
// image in row-major order. Every label must lie in [0, n). The label image
// is retained, not copied, and must not change until ComputeColors returns.
func Build(labels []int, width, height, n int) (*Graph, error) {
	if width <= 0 || height <= 0 {
		return nil, segerr.Dimensions("label image is %dx%d", width, height)
	}
	if len(labels) != width*height {
		return nil, segerr.Dimensions("label image holds %d labels, want %d for %dx%d",
			len(labels), width*height, width, height)
	}
	if n <= 0 {
		return nil, segerr.Dimensions("region count must be positive, got %d", n)
	}
	for i, l := range labels {
		if l < 0 || l >= n {
			return nil, segerr.Dimensions("label %d at pixel %d outside [0, %d)", l, i, n)
		}
	}

	g := &Graph{
		n:       n,
		width:   width,
		height:  height,
		labels:  labels,
		adj:     make([]int, n*n),
		dist:    make([]float64, n*n),
		regions: make([]Region, n),
		mapping: make([]int, n),
	}
	for i := range g.mapping {
		g.mapping[i] = i
	}
	return g, nil
}

// BuildFromLabels is Build with n set to one more than the largest label.
func BuildFromLabels(lbl []int, width, height int) (*Graph, error) {
	return Build(lbl, width, height, labels.MaxLabel(lbl)+1)
}

// AccumulateAdjacency counts, for every pixel off the one-pixel border, each
// of its four neighbors: adj[src][dst] and adj[dst][src] both grow by one.
func (g *Graph) AccumulateAdjacency() {
	n, w := g.n, g.width
	for y := 1; y < g.height-1; y++ {
		for x := 1; x < w-1; x++ {
			src := g.labels[y*w+x]
			for _, dst := range [4]int{
				g.labels[y*w+x-1],
				g.labels[y*w+x+1],
				g.labels[(y+1)*w+x],
				g.labels[(y-1)*w+x],
			} {
				g.adj[src*n+dst]++
				g.adj[dst*n+src]++
			}
		}
	}
}

// ComputeColors sets each region's mean color and area from colors, three
// values per pixel aligned with the label image, then the distance between
// every adjacent pair. Regions with no pixels keep a zero mean.
//
// Regions are split into ranges, one goroutine per range; each scans the
// whole label image and only writes the regions it owns.
func (g *Graph) ComputeColors(ctx context.Context, colors []float64) error {
	if len(colors) != 3*len(g.labels) {
		return segerr.Dimensions("color buffer holds %d values, want %d", len(colors), 3*len(g.labels))
	}

	workers := min(runtime.GOMAXPROCS(0), g.n)
	chunk := (g.n + workers - 1) / workers

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for lo := 0; lo < g.n; lo += chunk {
		hi := min(lo+chunk, g.n)
		eg.Go(func() error {
			return g.accumulateColors(egCtx, colors, lo, hi)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	eg, egCtx = errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for lo := 0; lo < g.n; lo += chunk {
		hi := min(lo+chunk, g.n)
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := egCtx.Err(); err != nil {
					return err
				}
				for j := 0; j < g.n; j++ {
					if g.adj[i*g.n+j] > 0 {
						g.dist[i*g.n+j] = g.colorDistance(i, j)
					}
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Int("regions", g.n).Int("workers", workers).Msg("rag colors computed")
	return nil
}

func (g *Graph) accumulateColors(ctx context.Context, colors []float64, lo, hi int) error {
	sums := make([][3]float64, hi-lo)
	areas := make([]int, hi-lo)
	for y := 0; y < g.height; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for p := y * g.width; p < (y+1)*g.width; p++ {
			l := g.labels[p]
			if l < lo || l >= hi {
				continue
			}
			s := &sums[l-lo]
			s[0] += colors[3*p]
			s[1] += colors[3*p+1]
			s[2] += colors[3*p+2]
			areas[l-lo]++
		}
	}
	for k := range sums {
		r := &g.regions[lo+k]
		r.Area = areas[k]
		if r.Area == 0 {
			r.Mean = [3]float64{}
			continue
		}
		a := float64(r.Area)
		r.Mean = [3]float64{sums[k][0] / a, sums[k][1] / a, sums[k][2] / a}
	}
	return nil
}

func (g *Graph) colorDistance(i, j int) float64 {
	return floats.Distance(g.regions[i].Mean[:], g.regions[j].Mean[:], 2)
}

// NumRegions returns N.
func (g *Graph) NumRegions() int { return g.n }

// Adjacency returns the pixel-pair count between regions i and j.
func (g *Graph) Adjacency(i, j int) int { return g.adj[i*g.n+j] }

// Distance returns the mean-color distance between regions i and j. It is
// only meaningful when Adjacency(i, j) > 0.
func (g *Graph) Distance(i, j int) float64 { return g.dist[i*g.n+j] }

// Region returns the summary of region i.
func (g *Graph) Region(i int) Region { return g.regions[i] }

// Mapping returns a copy of the current representative of every region.
func (g *Graph) Mapping() []int {
	return append([]int(nil), g.mapping...)
}

// TotalArea is the sum of all region areas. Merging moves area between
// regions but never changes the total.
func (g *Graph) TotalArea() int {
	total := 0
	for _, r := range g.regions {
		total += r.Area
	}
	return total
}

// Survivors returns, in ascending order, the regions that are their own
// representative and cover at least one pixel.
func (g *Graph) Survivors() []int {
	var out []int
	for k, m := range g.mapping {
		if m == k && g.regions[k].Area > 0 {
			out = append(out, k)
		}
	}
	return out
}
