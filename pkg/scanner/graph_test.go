package scanner

import (
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarb/arbengine/pkg"
)

func TestBpsFromRate(t *testing.T) {
	assert.EqualValues(t, 0, bpsFromRate(1.0))
	assert.EqualValues(t, 100, bpsFromRate(1.01))
	assert.EqualValues(t, -100, bpsFromRate(0.99))
}

func TestClampBorrowRejectsNegativeAndNil(t *testing.T) {
	assert.True(t, clampBorrow(cosmath.NewInt(-5)).IsZero())
	assert.True(t, clampBorrow(cosmath.Int{}).IsZero())

	positive := cosmath.NewInt(1_000)
	assert.True(t, clampBorrow(positive).Equal(positive))
}

func TestDecimalAdjustShiftsByDecimalDifference(t *testing.T) {
	// A raw base-unit price of a 9-decimal mint quoted in a 6-decimal mint
	// scales up by 1e3 (10^(decA-decB)) to the human-decimal price; the
	// reverse pairing scales down by 1e3.
	assert.InDelta(t, 1_000_000.0, decimalAdjust(1000.0, 9, 6), 1e-9)
	assert.InDelta(t, 0.001, decimalAdjust(1.0, 6, 9), 1e-9)
	assert.InDelta(t, 1.0, decimalAdjust(1.0, 6, 6), 1e-9)
}

// TestFilterOutlierEdgesScenarioE4 reproduces the outlier-filter worked
// example: rates [1.00, 1.01, 1.00, 50.0] must keep the three agreeing
// quotes and drop the 50.0 outlier.
func TestFilterOutlierEdgesScenarioE4(t *testing.T) {
	edges := []pkg.PriceEdge{
		{From: "A", To: "B", Rate: 1.00, PoolID: "pool-1"},
		{From: "A", To: "B", Rate: 1.01, PoolID: "pool-2"},
		{From: "A", To: "B", Rate: 1.00, PoolID: "pool-3"},
		{From: "A", To: "B", Rate: 50.0, PoolID: "pool-4"},
	}

	filtered := filterOutlierEdges(edges)

	require.Len(t, filtered, 3)
	for _, e := range filtered {
		assert.NotEqual(t, 50.0, e.Rate)
	}
}

func TestGraphEdgesAndCounts(t *testing.T) {
	g := &Graph{edges: map[string][]pkg.PriceEdge{
		"SOL": {
			{From: "SOL", To: "USDC", Rate: 150.0, PoolID: "pool1"},
			{From: "SOL", To: "USDT", Rate: 149.5, PoolID: "pool2"},
		},
	}}

	assert.Len(t, g.Edges("SOL"), 2)
	assert.Empty(t, g.Edges("USDC"))
	assert.Equal(t, 1, g.TokenCount())
	assert.Equal(t, 2, g.EdgeCount())
}
