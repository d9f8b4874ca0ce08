// Package scanner implements the cross-venue and triangular arbitrage
// search strategies over pool states resolved by the Registry.
package scanner

import (
	"context"
	"sort"

	cosmath "cosmossdk.io/math"

	"github.com/solarb/arbengine/pkg"
	"github.com/solarb/arbengine/pkg/pooldecode"
	"github.com/solarb/arbengine/pkg/registry"
	"github.com/solarb/arbengine/pkg/tokens"
)

// estimateFeeBps guesses a pool's swap fee in basis points from its
// decoded family and on-chain fee field, falling back to a family-typical
// default when the field is absent or implausible.
func estimateFeeBps(state *pooldecode.PoolState) int64 {
	switch state.Family {
	case pooldecode.FamilyConcentratedC:
		if state.FeeBps > 0 {
			return int64(state.FeeBps)
		}
		return 30
	case pooldecode.FamilyConcentratedA:
		return 25
	case pooldecode.FamilyStandardB:
		return 25
	case pooldecode.FamilyDiscreteD:
		if state.FeeBps > 0 {
			return int64(state.FeeBps)
		}
		return 10
	default:
		return 30
	}
}

// computeRate returns how much toMint one unit of fromMint buys through
// state, or 0 if state cannot be priced in that direction (a family B
// pool with its zero decoder price, or a pool that doesn't carry this pair).
func computeRate(state *pooldecode.PoolState, fromMint, toMint string) float64 {
	mintA, mintB := state.MintA.String(), state.MintB.String()

	matchesDirect := mintA == fromMint && mintB == toMint
	matchesInverse := mintA == toMint && mintB == fromMint
	if !matchesDirect && !matchesInverse {
		return 0
	}

	if state.Family == pooldecode.FamilyStandardB && state.Price == 0 {
		return 0
	}

	price := state.Price
	if state.Family == pooldecode.FamilyConcentratedC || state.Family == pooldecode.FamilyDiscreteD {
		decA := tokens.ResolveDecimals(mintA)
		decB := tokens.ResolveDecimals(mintB)
		price = decimalAdjust(price, decA, decB)
	}
	if price <= 0 {
		return 0
	}

	if matchesDirect {
		return price
	}
	return 1.0 / price
}

func decimalAdjust(raw float64, decA, decB int) float64 {
	shift := decA - decB
	scale := 1.0
	for i := 0; i < shift; i++ {
		scale *= 10
	}
	for i := 0; i > shift; i-- {
		scale /= 10
	}
	return raw * scale
}

// Graph is a directed multigraph of price edges keyed by source mint,
// rebuilt from scratch on every BuildGraph call.
type Graph struct {
	edges map[string][]pkg.PriceEdge
}

// BuildGraph fetches current state for every pool known to reg and builds
// directed price edges in both directions per pool. For each directed
// (from, to) pair with two or more candidate pools, edges whose rate
// falls outside [0.5x, 2x] of the group's median are dropped as likely
// decode or decimal bugs.
func BuildGraph(ctx context.Context, reg *registry.Registry, pairKeys [][2]string) (*Graph, int, error) {
	type candidateKey struct{ from, to string }
	candidates := map[candidateKey][]pkg.PriceEdge{}

	var fetched int
	for _, pk := range pairKeys {
		states, err := reg.FetchStates(ctx, pk[0], pk[1])
		if err != nil {
			continue
		}
		fetched += len(states)

		for _, state := range states {
			mintA, mintB := state.MintA.String(), state.MintB.String()
			fee := estimateFeeBps(state)

			if rate := computeRate(state, mintA, mintB); rate > 0 {
				key := candidateKey{mintA, mintB}
				candidates[key] = append(candidates[key], pkg.PriceEdge{
					From: mintA, To: mintB, Rate: rate,
					PoolID: state.PoolAddress.String(), Family: state.Family.String(), FeeBps: fee,
				})
			}
			if rate := computeRate(state, mintB, mintA); rate > 0 {
				key := candidateKey{mintB, mintA}
				candidates[key] = append(candidates[key], pkg.PriceEdge{
					From: mintB, To: mintA, Rate: rate,
					PoolID: state.PoolAddress.String(), Family: state.Family.String(), FeeBps: fee,
				})
			}
		}
	}

	g := &Graph{edges: map[string][]pkg.PriceEdge{}}
	for _, edges := range candidates {
		for _, e := range filterOutlierEdges(edges) {
			g.edges[e.From] = append(g.edges[e.From], e)
		}
	}

	return g, fetched, nil
}

// filterOutlierEdges drops edges whose rate falls outside [0.5x, 2x] of the
// group's median, a cheap guard against decode or decimal bugs producing a
// wildly wrong quote among otherwise-agreeing pools. Groups of fewer than
// two edges have no basis for a median and pass through unfiltered.
func filterOutlierEdges(edges []pkg.PriceEdge) []pkg.PriceEdge {
	if len(edges) < 2 {
		return edges
	}

	rates := make([]float64, len(edges))
	for i, e := range edges {
		rates[i] = e.Rate
	}
	sort.Float64s(rates)
	median := rates[len(rates)/2]

	filtered := make([]pkg.PriceEdge, 0, len(edges))
	for _, e := range edges {
		if e.Rate >= 0.5*median && e.Rate <= 2.0*median {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Edges returns the directed edges leaving mint.
func (g *Graph) Edges(mint string) []pkg.PriceEdge { return g.edges[mint] }

// TokenCount returns the number of distinct source mints in the graph.
func (g *Graph) TokenCount() int { return len(g.edges) }

// EdgeCount returns the total number of directed edges in the graph.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.edges {
		n += len(es)
	}
	return n
}

func bpsFromRate(rate float64) int64 {
	return int64((rate - 1.0) * 10000)
}

func clampBorrow(amount cosmath.Int) cosmath.Int {
	if amount.IsNil() || amount.IsNegative() {
		return cosmath.ZeroInt()
	}
	return amount
}
