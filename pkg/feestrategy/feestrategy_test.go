package feestrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeNonPositiveProfitUsesFloor(t *testing.T) {
	s := Default()
	params := s.Compute(0, 1000, 200_000_000)
	assert.Equal(t, s.MinCUPrice, params.ComputeUnitPrice)
	assert.Equal(t, s.MinTipLamports, params.TipLamports)

	params = s.Compute(500, 1000, 200_000_000)
	assert.Equal(t, s.MinCUPrice, params.ComputeUnitPrice)
	assert.Equal(t, s.MinTipLamports, params.TipLamports)
}

func TestComputeScalesWithProfit(t *testing.T) {
	s := Default()

	small := s.Compute(1_000_000, 1_000, 200_000_000)
	large := s.Compute(1_000_000_000, 1_000, 200_000_000)

	assert.GreaterOrEqual(t, large.ComputeUnitPrice, small.ComputeUnitPrice)
	assert.GreaterOrEqual(t, large.TipLamports, small.TipLamports)
}

func TestComputeRespectsBounds(t *testing.T) {
	s := Default()
	params := s.Compute(1_000_000_000_000, 1_000, 200_000_000)

	assert.LessOrEqual(t, params.ComputeUnitPrice, s.MaxCUPrice)
	assert.GreaterOrEqual(t, params.ComputeUnitPrice, s.MinCUPrice)
	assert.LessOrEqual(t, params.TipLamports, s.MaxTipLamports)
	assert.GreaterOrEqual(t, params.TipLamports, s.MinTipLamports)
}

func TestComputeZeroReferencePriceDoesNotPanic(t *testing.T) {
	s := Default()
	assert.NotPanics(t, func() {
		s.Compute(1_000_000, 1_000, 0)
	})
}

// TestComputeFeeScalingScenario reproduces the fee-scaling worked example:
// gross=1_000_000, flash_fee=180, reference native price=85_000_000 quote
// lamports per SOL. Net pre-native is 999_820 quote base units; the tip
// clamps to MaxTipLamports at 0.40*profit_in_native, and total cost must
// stay within 0.80*profit_in_native. A flash fee of 180 at 9 bps implies a
// 200_000 principal, so the implied profit bps lands in the top CU-price
// bucket (MaxCUPrice).
func TestComputeFeeScalingScenario(t *testing.T) {
	s := Default()
	const gross = 1_000_000
	const flashFee = 180
	const referenceNativePrice = 85_000_000

	params := s.Compute(gross, flashFee, referenceNativePrice)

	netBeforeNative := int64(gross - flashFee)
	assert.Equal(t, int64(999_820), netBeforeNative)

	profitInNative := (netBeforeNative * 1_000_000_000) / referenceNativePrice
	assert.Equal(t, uint64(100_000), params.TipLamports, "0.40*profit_in_native exceeds MaxTipLamports and clamps to it")
	assert.Equal(t, uint64(200_000), params.ComputeUnitPrice)
	assert.Equal(t, uint64(185_000), params.TotalCostLamports)

	maxBudget := int64(float64(profitInNative) * 0.80)
	assert.LessOrEqual(t, int64(params.TotalCostLamports), maxBudget)
}
