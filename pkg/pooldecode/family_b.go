package pooldecode

import (
	"github.com/gagliardetto/solana-go"

	"github.com/solarb/arbengine/pkg/pool/pump"
	"github.com/solarb/arbengine/pkg/pool/raydium"
)

// decodeStandardB adapts the three standard constant-product layouts
// (Raydium AMM v4, Raydium CPMM, pump.fun PumpSwap) into a unified
// PoolState. Price is left at zero: these accounts carry no reserve
// fields, and no vault-balance read fills it in later, so the scanners
// leave these pools out of price comparison.
func decodeStandardB(data []byte, poolAddress, programID solana.PublicKey) (*PoolState, error) {
	switch programID {
	case raydium.RAYDIUM_AMM_PROGRAM_ID:
		pool := &raydium.AMMPool{}
		if err := pool.Decode(data); err != nil {
			return nil, nil
		}
		feeBps := uint32(25)
		if pool.TradeFeeDenominator != 0 {
			feeBps = uint32(pool.TradeFeeNumerator * 10000 / pool.TradeFeeDenominator)
		}
		return &PoolState{
			PoolAddress: poolAddress,
			ProgramID:   programID,
			Family:      FamilyStandardB,
			MintA:       pool.BaseMint,
			MintB:       pool.QuoteMint,
			VaultA:      pool.BaseVault,
			VaultB:      pool.QuoteVault,
			Price:       0,
			FeeBps:      feeBps,
		}, nil

	case raydium.RAYDIUM_CPMM_PROGRAM_ID:
		pool := &raydium.CPMMPool{}
		if err := pool.Decode(data); err != nil {
			return nil, nil
		}
		return &PoolState{
			PoolAddress: poolAddress,
			ProgramID:   programID,
			Family:      FamilyStandardB,
			MintA:       pool.Token0Mint,
			MintB:       pool.Token1Mint,
			VaultA:      pool.Token0Vault,
			VaultB:      pool.Token1Vault,
			Price:       0,
			FeeBps:      25,
		}, nil

	case pump.PumpSwapProgramID:
		pool, err := pump.ParsePoolData(data)
		if err != nil {
			return nil, nil
		}
		return &PoolState{
			PoolAddress: poolAddress,
			ProgramID:   programID,
			Family:      FamilyStandardB,
			MintA:       pool.BaseMint,
			MintB:       pool.QuoteMint,
			VaultA:      pool.PoolBaseTokenAccount,
			VaultB:      pool.PoolQuoteTokenAccount,
			Price:       0,
			FeeBps:      25,
		}, nil

	default:
		return nil, nil
	}
}
