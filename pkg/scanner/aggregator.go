package scanner

import (
	"context"
	"fmt"

	cosmath "cosmossdk.io/math"

	"github.com/solarb/arbengine/pkg"
	"github.com/solarb/arbengine/pkg/quoteprovider"
	"github.com/solarb/arbengine/pkg/tokens"
)

// AggregatorScanner prices a round trip (borrow -> target -> borrow)
// entirely through the quote provider, as a cross-check against the
// on-chain scanners and a fallback route when a pair has too few
// decodable pools for direct comparison.
type AggregatorScanner struct {
	quotes          *quoteprovider.Provider
	flashLoanFeeBps int64
	minProfitBps    int64
}

// NewAggregatorScanner constructs a scanner backed by quotes.
func NewAggregatorScanner(quotes *quoteprovider.Provider, flashLoanFeeBps, minProfitBps int64) *AggregatorScanner {
	return &AggregatorScanner{quotes: quotes, flashLoanFeeBps: flashLoanFeeBps, minProfitBps: minProfitBps}
}

// ScanPair quotes principal of borrowMint into targetMint and back, and
// reports the round trip if its net margin (after the flash-loan fee)
// clears MinProfitBps.
func (s *AggregatorScanner) ScanPair(ctx context.Context, pair string, principal cosmath.Int, slippageBps int) (*pkg.AggregatorOpportunity, error) {
	target, borrow, ok := tokens.ParsePair(pair)
	if !ok {
		return nil, fmt.Errorf("aggregator scan: invalid pair %q", pair)
	}

	leg1, err := s.quotes.GetQuote(ctx, borrow, target, principal.Uint64(), slippageBps)
	if err != nil {
		return nil, fmt.Errorf("quote leg1: %w", err)
	}

	leg2, err := s.quotes.GetQuote(ctx, target, borrow, leg1.OutAmount, slippageBps)
	if err != nil {
		return nil, fmt.Errorf("quote leg2: %w", err)
	}

	flashFee := cosmath.NewIntFromUint64(principal.Uint64()).MulRaw(s.flashLoanFeeBps).QuoRaw(10000)
	leg2Out := cosmath.NewIntFromUint64(leg2.OutAmount)

	netProfit := leg2Out.Sub(principal).Sub(flashFee)
	netMarginBps := int64(0)
	if !principal.IsZero() {
		netMarginBps = netProfit.MulRaw(10000).Quo(principal).Int64()
	}

	if netMarginBps < s.minProfitBps {
		return nil, nil
	}

	return &pkg.AggregatorOpportunity{
		Borrow:        borrow,
		Target:        target,
		Principal:     principal,
		Leg1Out:       cosmath.NewIntFromUint64(leg1.OutAmount),
		Leg2Out:       leg2Out,
		FlashLoanFee:  flashFee,
		Source:        leg1.Source + "+" + leg2.Source,
		NetMarginBps_: netMarginBps,
	}, nil
}
