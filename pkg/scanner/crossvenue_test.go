package scanner

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"github.com/solarb/arbengine/pkg/pooldecode"
)

var (
	testTargetMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testQuoteMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testOtherMint  = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

func TestNormalizePriceOrientsQuotePerTarget(t *testing.T) {
	direct := &pooldecode.PoolState{
		Family: pooldecode.FamilyConcentratedA,
		MintA:  testTargetMint,
		MintB:  testQuoteMint,
		Price:  150.0,
	}
	price, ok := normalizePrice(direct, testQuoteMint.String(), testTargetMint.String())
	assert.True(t, ok)
	assert.InDelta(t, 150.0, price, 1e-9)

	inverse := &pooldecode.PoolState{
		Family: pooldecode.FamilyConcentratedA,
		MintA:  testQuoteMint,
		MintB:  testTargetMint,
		Price:  150.0,
	}
	price, ok = normalizePrice(inverse, testQuoteMint.String(), testTargetMint.String())
	assert.True(t, ok)
	assert.InDelta(t, 1.0/150.0, price, 1e-9)
}

func TestNormalizePriceRejectsUnresolvedFamilyB(t *testing.T) {
	state := &pooldecode.PoolState{
		Family: pooldecode.FamilyStandardB,
		MintA:  testTargetMint,
		MintB:  testQuoteMint,
		Price:  0,
	}
	_, ok := normalizePrice(state, testQuoteMint.String(), testTargetMint.String())
	assert.False(t, ok)
}

func TestNormalizePriceRejectsMismatchedPair(t *testing.T) {
	state := &pooldecode.PoolState{
		Family: pooldecode.FamilyConcentratedA,
		MintA:  testTargetMint,
		MintB:  testOtherMint,
		Price:  10,
	}
	_, ok := normalizePrice(state, testQuoteMint.String(), testTargetMint.String())
	assert.False(t, ok)
}

func TestSelectCrossVenueSpreadRejectsSameFamily(t *testing.T) {
	priced := []pricedPool{
		{state: &pooldecode.PoolState{PoolAddress: testTargetMint, Family: pooldecode.FamilyConcentratedA}, price: 100.0},
		{state: &pooldecode.PoolState{PoolAddress: testQuoteMint, Family: pooldecode.FamilyConcentratedA}, price: 102.0},
	}
	_, _, _, _, ok := selectCrossVenueSpread(priced, 9, 5)
	assert.False(t, ok, "cheapest and dearest sharing an AMM family has no cross-venue value")
}

// TestCrossVenueSpreadScenarioE1 reproduces the symmetric-spread worked
// example: two pools priced 0.00500 and 0.00510 quote-per-target (a 200bps
// spread), flash_fee=9bps, yielding net = 200 - 9 - 60 - 2 = 129.
func TestCrossVenueSpreadScenarioE1(t *testing.T) {
	priced := []pricedPool{
		{state: &pooldecode.PoolState{PoolAddress: testTargetMint, Family: pooldecode.FamilyConcentratedA}, price: 0.00500},
		{state: &pooldecode.PoolState{PoolAddress: testQuoteMint, Family: pooldecode.FamilyDiscreteD}, price: 0.00510},
	}
	cheapest, dearest, spreadBps, netMargin, ok := selectCrossVenueSpread(priced, 9, 5)
	assert.True(t, ok)
	assert.Equal(t, 0.00500, cheapest.price)
	assert.Equal(t, 0.00510, dearest.price)
	assert.Equal(t, int64(200), spreadBps)
	assert.Equal(t, int64(129), netMargin)
}

// TestCrossVenueSpreadScenarioE2 reproduces the extreme-spread rejection:
// normalized prices 1.00 and 10.00 (90000bps) must trip the 500bps sanity
// ceiling and yield no opportunity.
func TestCrossVenueSpreadScenarioE2(t *testing.T) {
	priced := []pricedPool{
		{state: &pooldecode.PoolState{PoolAddress: testTargetMint, Family: pooldecode.FamilyConcentratedA}, price: 1.00},
		{state: &pooldecode.PoolState{PoolAddress: testQuoteMint, Family: pooldecode.FamilyDiscreteD}, price: 10.00},
	}
	_, _, _, _, ok := selectCrossVenueSpread(priced, 9, 5)
	assert.False(t, ok, "a 90000bps spread must trip the 500bps sanity ceiling")
}

func TestSelectCrossVenueSpreadAcceptsCrossFamily(t *testing.T) {
	priced := []pricedPool{
		{state: &pooldecode.PoolState{PoolAddress: testTargetMint, Family: pooldecode.FamilyConcentratedA}, price: 100.0},
		{state: &pooldecode.PoolState{PoolAddress: testQuoteMint, Family: pooldecode.FamilyDiscreteD}, price: 102.0},
	}
	cheapest, dearest, spreadBps, netMargin, ok := selectCrossVenueSpread(priced, 9, 5)
	assert.True(t, ok)
	assert.Equal(t, pooldecode.FamilyConcentratedA, cheapest.state.Family)
	assert.Equal(t, pooldecode.FamilyDiscreteD, dearest.state.Family)
	assert.Equal(t, int64(200), spreadBps)
	assert.Equal(t, int64(200-9-60-2), netMargin)
}
