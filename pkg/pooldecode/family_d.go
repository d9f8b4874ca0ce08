package pooldecode

import (
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/solarb/arbengine/pkg/pool/meteora"
)

// decodeDiscreteD adapts meteora.MeteoraDlmmPool.Decode (family D: Meteora
// DLMM) into a unified PoolState. Price follows the bin-step formula from
// pkg/pool/meteora/price.go's swap math: price = (1 + bin_step/10000)^active_id.
func decodeDiscreteD(data []byte, poolAddress, programID solana.PublicKey) (*PoolState, error) {
	pool := &meteora.MeteoraDlmmPool{}
	if err := pool.Decode(data); err != nil {
		return nil, nil
	}

	binStep := pool.BinStep()
	activeID := pool.ActiveID()
	price := math.Pow(1+float64(binStep)/10000, float64(activeID))

	oracle := pool.Oracle()

	return &PoolState{
		PoolAddress:   poolAddress,
		ProgramID:     programID,
		Family:        FamilyDiscreteD,
		MintA:         pool.TokenXMint,
		MintB:         pool.TokenYMint,
		VaultA:        pool.ReserveX(),
		VaultB:        pool.ReserveY(),
		Price:         price,
		OracleAccount: &oracle,
	}, nil
}
