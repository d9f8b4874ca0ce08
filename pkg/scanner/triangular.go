package scanner

import (
	"sort"

	cosmath "cosmossdk.io/math"

	"github.com/solarb/arbengine/pkg"
	"github.com/solarb/arbengine/pkg/tokens"
)

// TriangularScanner searches a Graph for 3-leg cycles Q -> X -> Y -> Q
// starting and ending at a fixed quote mint (USDC by default), yielding
// ones whose net margin after per-leg fees and the flash-loan fee clears
// MinProfitBps.
type TriangularScanner struct {
	flashFeeBps  int64
	minProfitBps int64
}

// NewTriangularScanner constructs a scanner with the given flash-loan fee
// and minimum net-profit thresholds, both in basis points.
func NewTriangularScanner(flashFeeBps, minProfitBps int64) *TriangularScanner {
	return &TriangularScanner{flashFeeBps: flashFeeBps, minProfitBps: minProfitBps}
}

// ScanTriangles searches g for profitable 3-cycles rooted at quoteMint,
// deduplicated to the best-net-margin opportunity per (X, Y) path.
func (s *TriangularScanner) ScanTriangles(g *Graph, quoteMint string, borrowAmount cosmath.Int) []*pkg.TriangularOpportunity {
	var found []*pkg.TriangularOpportunity

	for _, edge1 := range g.Edges(quoteMint) {
		xMint := edge1.To
		if xMint == quoteMint {
			continue
		}

		for _, edge2 := range g.Edges(xMint) {
			yMint := edge2.To
			if yMint == quoteMint || yMint == xMint {
				continue
			}

			for _, edge3 := range g.Edges(yMint) {
				if edge3.To != quoteMint {
					continue
				}

				pools := map[string]struct{}{edge1.PoolID: {}, edge2.PoolID: {}, edge3.PoolID: {}}
				if len(pools) < 3 {
					continue
				}

				roundTrip := edge1.Rate * edge2.Rate * edge3.Rate
				if roundTrip > 1.015 || roundTrip < 0.5 {
					continue
				}

				feeMult := (1 - float64(edge1.FeeBps)/10000) *
					(1 - float64(edge2.FeeBps)/10000) *
					(1 - float64(edge3.FeeBps)/10000)
				netRate := roundTrip * feeMult

				grossBps := bpsFromRate(netRate)
				const solCostBps = 3
				netBps := grossBps - s.flashFeeBps - solCostBps

				if netBps < s.minProfitBps {
					continue
				}

				found = append(found, &pkg.TriangularOpportunity{
					Path:           [4]string{quoteMint, xMint, yMint, quoteMint},
					Edges:          [3]pkg.PriceEdge{edge1, edge2, edge3},
					Principal:      clampBorrow(borrowAmount),
					RoundTrip:      roundTrip,
					GrossMarginBps: grossBps,
					NetMarginBps_:  netBps,
				})
			}
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].NetMarginBps() > found[j].NetMarginBps() })

	seen := map[string]struct{}{}
	var deduped []*pkg.TriangularOpportunity
	for _, opp := range found {
		key := opp.Path[1] + "->" + opp.Path[2]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, opp)
	}

	return deduped
}

// DefaultGraphTokens is the ticker set the triangular scanner builds its
// price graph from: quote assets, DeFi blue chips, liquid-staking tokens,
// and the highest-volume memecoins, all liquid enough to round-trip
// without the rate collapsing under price impact.
var DefaultGraphTokens = []string{
	"USDC", "SOL", "USDT",
	"JUP", "RAY", "ORCA", "PYTH", "JTO",
	"MSOL", "JITOSOL", "BSOL",
	"BONK", "WIF", "RENDER",
}

// GraphPairKeys returns every unordered pair among tokens, resolved to
// mint addresses, for BuildGraph to fetch pool states over.
func GraphPairKeys(symbolsOrMints []string) [][2]string {
	mints := make([]string, len(symbolsOrMints))
	for i, s := range symbolsOrMints {
		mints[i] = tokens.ResolveMint(s)
	}

	var keys [][2]string
	for i := 0; i < len(mints); i++ {
		for j := i + 1; j < len(mints); j++ {
			keys = append(keys, [2]string{mints[i], mints[j]})
		}
	}
	return keys
}
