package pooldecode

import (
	"github.com/gagliardetto/solana-go"

	"github.com/solarb/arbengine/pkg/pool/raydium"
)

// decodeConcentratedA adapts raydium.CLMMPool.Decode (family A: Raydium
// CLMM) into a unified PoolState. Decimals are stored in the account, so the
// decimal adjustment happens inline here (CLMMPool.CurrentPrice itself
// returns the unadjusted raw price).
func decodeConcentratedA(data []byte, poolAddress, programID solana.PublicKey) (*PoolState, error) {
	pool := &raydium.CLMMPool{}
	if err := pool.Decode(data); err != nil {
		return nil, nil
	}
	pool.PoolId = poolAddress

	sqrtPrice := pool.SqrtPriceX64
	raw := sqrtPriceToPrice(sqrtPrice)
	price := decimalAdjust(raw, pool.MintDecimals0, pool.MintDecimals1)
	tick := pool.TickCurrent
	observation := pool.ObservationKey
	config := pool.AmmConfig

	return &PoolState{
		PoolAddress:      poolAddress,
		ProgramID:        programID,
		Family:           FamilyConcentratedA,
		MintA:            pool.TokenMint0,
		MintB:            pool.TokenMint1,
		VaultA:           pool.TokenVault0,
		VaultB:           pool.TokenVault1,
		Price:            price,
		SqrtPriceX64:     &sqrtPrice,
		Tick:             &tick,
		FeeBps:           pool.FeeRate / 100,
		ConfigAccount:    &config,
		ObservationState: &observation,
	}, nil
}
