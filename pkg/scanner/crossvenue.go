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

// CrossVenueScanner compares a target/quote pair's price across every
// registered pool and flags the cheapest-buy/dearest-sell spread when it
// clears both a sanity ceiling and a minimum threshold.
type CrossVenueScanner struct {
	reg           *registry.Registry
	poolFeeBps    int64
	minSpreadBps  int64
}

// NewCrossVenueScanner constructs a scanner over reg.
func NewCrossVenueScanner(reg *registry.Registry, poolFeeBps, minSpreadBps int64) *CrossVenueScanner {
	return &CrossVenueScanner{reg: reg, poolFeeBps: poolFeeBps, minSpreadBps: minSpreadBps}
}

type pricedPool struct {
	state *pooldecode.PoolState
	price float64 // quote-per-target
}

// normalizePrice orients state's price as quote-per-target regardless of
// which mint the pool stores as MintA, and skips every family B pool (the
// decoder leaves their price at 0 and nothing resolves it).
func normalizePrice(state *pooldecode.PoolState, quoteMint, targetMint string) (float64, bool) {
	mintA, mintB := state.MintA.String(), state.MintB.String()
	if !((mintA == targetMint && mintB == quoteMint) || (mintA == quoteMint && mintB == targetMint)) {
		return 0, false
	}
	if state.Family == pooldecode.FamilyStandardB {
		return 0, false
	}

	price := state.Price
	if state.Family == pooldecode.FamilyConcentratedC || state.Family == pooldecode.FamilyDiscreteD {
		price = decimalAdjust(price, tokens.ResolveDecimals(mintA), tokens.ResolveDecimals(mintB))
	}
	if price <= 0 {
		return 0, false
	}

	if mintA == targetMint && mintB == quoteMint {
		return price, true
	}
	return 1.0 / price, true
}

// ScanPair fetches every registered pool state for a pair and reports the
// widest buy/sell spread, if it clears MinSpreadBps and stays under the
// 500bps sanity ceiling a real spread would never cross (pros would have
// arbed it away instantly).
func (s *CrossVenueScanner) ScanPair(ctx context.Context, pair string, defaultBorrow cosmath.Int) (*pkg.CrossVenueOpportunity, error) {
	target, quote, ok := tokens.ParsePair(pair)
	if !ok {
		return nil, nil
	}

	borrow := defaultBorrow
	if override, has := tokens.BorrowOverride(target); has {
		borrow = cosmath.NewInt(override)
	}

	states, err := s.reg.FetchStates(ctx, quote, target)
	if err != nil {
		return nil, err
	}
	if len(states) < 2 {
		return nil, nil
	}

	var priced []pricedPool
	for _, st := range states {
		if price, ok := normalizePrice(st, quote, target); ok {
			priced = append(priced, pricedPool{state: st, price: price})
		}
	}
	if len(priced) < 2 {
		return nil, nil
	}

	cheapest, dearest, spreadBps, netMargin, ok := selectCrossVenueSpread(priced, s.poolFeeBps, s.minSpreadBps)
	if !ok {
		return nil, nil
	}

	return &pkg.CrossVenueOpportunity{
		BuyPoolID:     cheapest.state.PoolAddress.String(),
		SellPoolID:    dearest.state.PoolAddress.String(),
		BuyFamily:     cheapest.state.Family.String(),
		SellFamily:    dearest.state.Family.String(),
		Borrow:        quote,
		Target:        target,
		Principal:     clampBorrow(borrow),
		SpreadBps:     spreadBps,
		NetMarginBps_: netMargin,
	}, nil
}

// selectCrossVenueSpread picks the cheapest/dearest priced pools, rejects
// same-family pairs (no cross-venue value) and spreads outside the sanity
// ceiling or below the configured threshold, and returns the net margin
// after the fixed cost stack.
func selectCrossVenueSpread(priced []pricedPool, poolFeeBps, minSpreadBps int64) (cheapest, dearest pricedPool, spreadBps, netMargin int64, ok bool) {
	sort.Slice(priced, func(i, j int) bool { return priced[i].price < priced[j].price })
	cheapest, dearest = priced[0], priced[len(priced)-1]

	if cheapest.state.Family == dearest.state.Family {
		return cheapest, dearest, 0, 0, false
	}

	spreadBps = int64((dearest.price - cheapest.price) / cheapest.price * 10000)
	if spreadBps > 500 || spreadBps < minSpreadBps {
		return cheapest, dearest, spreadBps, 0, false
	}

	const swapFeeBps = 60
	const solCostBps = 2
	netMargin = spreadBps - poolFeeBps - swapFeeBps - solCostBps

	return cheapest, dearest, spreadBps, netMargin, true
}
