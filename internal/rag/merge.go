package rag

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ironsheep/segment-mcp/internal/segerr"
)

// Merge makes one greedy forward sweep over every ordered pair (i, j) and
// merges i into j whenever the two are adjacent, distinct, and their
// mean-color distance is strictly below threshold. It returns the number of
// merges performed.
//
// Pairs are not revisited: a merge that brings a new neighbor to a region
// already passed in the sweep is only considered by a later call, so the
// result depends on region numbering. ctx is checked before each row of the
// sweep.
func (g *Graph) Merge(ctx context.Context, threshold float64) (int, error) {
	n := g.n
	merges := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return merges, err
		}
		for j := 0; j < n; j++ {
			if i == j || g.adj[i*n+j] == 0 || !(g.dist[i*n+j] < threshold) {
				continue
			}
			g.absorb(j, i)
			merges++
		}
	}
	zerolog.Ctx(ctx).Debug().
		Float64("threshold", threshold).
		Int("merges", merges).
		Int("survivors", len(g.Survivors())).
		Msg("rag merge sweep")
	return merges, nil
}

// MergeUntilStable repeats Merge until a sweep merges nothing or maxPasses
// sweeps have run. maxPasses <= 0 means no limit. It returns the total
// number of merges.
func (g *Graph) MergeUntilStable(ctx context.Context, threshold float64, maxPasses int) (int, error) {
	total := 0
	for pass := 0; maxPasses <= 0 || pass < maxPasses; pass++ {
		merges, err := g.Merge(ctx, threshold)
		total += merges
		if err != nil {
			return total, err
		}
		if merges == 0 {
			break
		}
	}
	return total, nil
}

// absorb merges region i into region j.
func (g *Graph) absorb(j, i int) {
	n := g.n

	g.mapping[i] = j
	for k, m := range g.mapping {
		if m == i {
			g.mapping[k] = j
		}
	}

	for k := 0; k < n; k++ {
		g.adj[j*n+k] += g.adj[i*n+k]
		g.adj[k*n+j] += g.adj[k*n+i]
	}
	for k := 0; k < n; k++ {
		g.adj[i*n+k] = 0
		g.adj[k*n+i] = 0
	}

	ri, rj := &g.regions[i], &g.regions[j]
	if total := ri.Area + rj.Area; total > 0 {
		ai, aj := float64(ri.Area), float64(rj.Area)
		for c := range rj.Mean {
			rj.Mean[c] = (ai*ri.Mean[c] + aj*rj.Mean[c]) / float64(total)
		}
	}
	rj.Area += ri.Area
	ri.Area = 0

	for k := 0; k < n; k++ {
		if g.adj[j*n+k] > 0 {
			d := g.colorDistance(j, k)
			g.dist[j*n+k] = d
			g.dist[k*n+j] = d
		}
	}
}

// Relabel rewrites every label l in lbl to its current representative.
// Labels outside [0, N) are rejected before anything is written.
func (g *Graph) Relabel(lbl []int) error {
	for i, l := range lbl {
		if l < 0 || l >= g.n {
			return segerr.Dimensions("label %d at pixel %d outside [0, %d)", l, i, g.n)
		}
	}
	for i, l := range lbl {
		lbl[i] = g.mapping[l]
	}
	return nil
}
