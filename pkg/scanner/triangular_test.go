package scanner

import (
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarb/arbengine/pkg"
)

func buildTestGraph(edges ...pkg.PriceEdge) *Graph {
	g := &Graph{edges: map[string][]pkg.PriceEdge{}}
	for _, e := range edges {
		g.edges[e.From] = append(g.edges[e.From], e)
	}
	return g
}

func TestScanTrianglesFindsProfitableCycle(t *testing.T) {
	// USDC -> SOL -> JUP -> USDC, round trip slightly above 1.0 after fees.
	g := buildTestGraph(
		pkg.PriceEdge{From: "USDC", To: "SOL", Rate: 0.01, PoolID: "pool-a", FeeBps: 25},
		pkg.PriceEdge{From: "SOL", To: "JUP", Rate: 40.0, PoolID: "pool-b", FeeBps: 25},
		pkg.PriceEdge{From: "JUP", To: "USDC", Rate: 2.53, PoolID: "pool-c", FeeBps: 25},
	)

	s := NewTriangularScanner(9, 5)
	found := s.ScanTriangles(g, "USDC", cosmath.NewInt(1_000_000))

	require.Len(t, found, 1)
	assert.Equal(t, [4]string{"USDC", "SOL", "JUP", "USDC"}, found[0].Path)
	assert.Greater(t, found[0].NetMarginBps(), int64(0))
}

func TestScanTrianglesRejectsSamePoolReusedAcrossLegs(t *testing.T) {
	g := buildTestGraph(
		pkg.PriceEdge{From: "USDC", To: "SOL", Rate: 0.01, PoolID: "pool-a", FeeBps: 25},
		pkg.PriceEdge{From: "SOL", To: "JUP", Rate: 40.0, PoolID: "pool-a", FeeBps: 25},
		pkg.PriceEdge{From: "JUP", To: "USDC", Rate: 2.55, PoolID: "pool-c", FeeBps: 25},
	)

	s := NewTriangularScanner(9, 5)
	found := s.ScanTriangles(g, "USDC", cosmath.NewInt(1_000_000))
	assert.Empty(t, found, "a cycle that revisits the same pool isn't a real arbitrage")
}

func TestScanTrianglesRejectsBelowThreshold(t *testing.T) {
	// Round trip of exactly 1.0 before fees nets negative after fees and
	// the flash-loan cost, so it should not surface.
	g := buildTestGraph(
		pkg.PriceEdge{From: "USDC", To: "SOL", Rate: 0.01, PoolID: "pool-a", FeeBps: 25},
		pkg.PriceEdge{From: "SOL", To: "JUP", Rate: 40.0, PoolID: "pool-b", FeeBps: 25},
		pkg.PriceEdge{From: "JUP", To: "USDC", Rate: 2.5, PoolID: "pool-c", FeeBps: 25},
	)

	s := NewTriangularScanner(9, 5)
	found := s.ScanTriangles(g, "USDC", cosmath.NewInt(1_000_000))
	assert.Empty(t, found)
}

// TestTriangularScenarioE3 reproduces the three rate/fee combinations from
// the triangular worked example, each of which must yield no emission for a
// distinct reason: negative net after high fees, net below the 15bps
// threshold after low fees, and a round-trip over the 1.015 plausibility
// ceiling.
func TestTriangularScenarioE3(t *testing.T) {
	buildThreeLegGraph := func(r1, r2, r3 float64, fee1, fee2, fee3 int64) *Graph {
		return buildTestGraph(
			pkg.PriceEdge{From: "Q", To: "X", Rate: r1, PoolID: "pool-1", FeeBps: fee1},
			pkg.PriceEdge{From: "X", To: "Y", Rate: r2, PoolID: "pool-2", FeeBps: fee2},
			pkg.PriceEdge{From: "Y", To: "Q", Rate: r3, PoolID: "pool-3", FeeBps: fee3},
		)
	}

	t.Run("high fees turn a positive round trip net-negative", func(t *testing.T) {
		g := buildThreeLegGraph(1.002, 1.001, 1.000, 25, 25, 25)
		s := NewTriangularScanner(9, 15)
		found := s.ScanTriangles(g, "Q", cosmath.NewInt(1_000_000))
		assert.Empty(t, found)
	})

	t.Run("low fees net positive but below the 15bps threshold", func(t *testing.T) {
		g := buildThreeLegGraph(1.002, 1.001, 1.000, 5, 5, 5)
		s := NewTriangularScanner(9, 15)
		found := s.ScanTriangles(g, "Q", cosmath.NewInt(1_000_000))
		assert.Empty(t, found)
	})

	t.Run("round trip over the 1.015 plausibility ceiling is rejected outright", func(t *testing.T) {
		g := buildThreeLegGraph(1.010, 1.005, 1.000, 5, 5, 5)
		s := NewTriangularScanner(9, 15)
		found := s.ScanTriangles(g, "Q", cosmath.NewInt(1_000_000))
		assert.Empty(t, found, "round_trip > 1.015 must trip the plausibility gate even though net margin would otherwise clear")
	})
}

func TestGraphPairKeysProducesUnorderedPairs(t *testing.T) {
	keys := GraphPairKeys([]string{"SOL", "USDC", "JUP"})
	assert.Len(t, keys, 3)
}
