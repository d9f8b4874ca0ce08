// Package feestrategy translates an expected opportunity's gross profit
// into compute-unit price and MEV-tip sizing, bidding more for better
// opportunities while capping total cost against profit.
package feestrategy

import "github.com/solarb/arbengine/pkg"

// Strategy mirrors the reference bot's tip/priority-fee bounds.
type Strategy struct {
	MinTipLamports uint64
	MaxTipLamports uint64
	TipProfitShare float64 // default 0.40

	MinCUPrice  uint64
	MaxCUPrice  uint64
	BaseCUPrice uint64

	ComputeUnits uint64
}

// Default returns the strategy's default bounds, matching the reference
// implementation's constructor defaults.
func Default() *Strategy {
	return &Strategy{
		MinTipLamports: 1_000,
		MaxTipLamports: 100_000,
		TipProfitShare: 0.40,
		MinCUPrice:     1_000,
		MaxCUPrice:     200_000,
		BaseCUPrice:    10_000,
		ComputeUnits:   400_000,
	}
}

// Compute derives FeeParams from a gross profit and flash-loan fee,
// expressed in the quote asset's smallest unit, plus a quote-per-native
// reference price (quote-lamports per 1 native SOL, 1e9 native lamports).
func (s *Strategy) Compute(grossProfit, flashLoanFee, referenceNativePrice int64) pkg.FeeParams {
	netBeforeNative := grossProfit - flashLoanFee
	if netBeforeNative <= 0 {
		return pkg.FeeParams{
			ComputeUnitPrice:  s.MinCUPrice,
			TipLamports:       s.MinTipLamports,
			TotalCostLamports: s.totalCost(s.MinCUPrice, s.MinTipLamports),
		}
	}

	if referenceNativePrice <= 0 {
		referenceNativePrice = 1
	}
	profitInNative := (netBeforeNative * 1_000_000_000) / referenceNativePrice

	rawTip := int64(float64(profitInNative) * s.TipProfitShare)
	tip := clamp64(rawTip, int64(s.MinTipLamports), int64(s.MaxTipLamports))

	denom := flashLoanFee * 10000 / 9
	if denom <= 0 {
		denom = 1
	}
	profitBpsApprox := netBeforeNative * 10000 / denom

	var cuPrice int64
	switch {
	case profitBpsApprox >= 50:
		cuPrice = int64(s.MaxCUPrice)
	case profitBpsApprox >= 20:
		cuPrice = int64(s.MaxCUPrice) / 2
	case profitBpsApprox >= 10:
		cuPrice = int64(s.BaseCUPrice) * 2
	default:
		cuPrice = int64(s.BaseCUPrice)
	}
	cuPrice = clamp64(cuPrice, int64(s.MinCUPrice), int64(s.MaxCUPrice))

	totalCost := s.totalCost(uint64(cuPrice), uint64(tip))

	maxBudget := int64(float64(profitInNative) * 0.80)
	if int64(totalCost) > maxBudget && maxBudget > 0 {
		scale := float64(maxBudget) / float64(totalCost)
		tip = maxInt64(int64(s.MinTipLamports), int64(float64(tip)*scale))
		cuPrice = maxInt64(int64(s.MinCUPrice), int64(float64(cuPrice)*scale))
		totalCost = s.totalCost(uint64(cuPrice), uint64(tip))
	}

	return pkg.FeeParams{
		ComputeUnitPrice:  uint64(cuPrice),
		TipLamports:       uint64(tip),
		TotalCostLamports: totalCost,
	}
}

func (s *Strategy) totalCost(cuPrice, tip uint64) uint64 {
	const baseFeeLamports = 5000
	priorityFee := (cuPrice * s.ComputeUnits) / 1_000_000
	return baseFeeLamports + priorityFee + tip
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
