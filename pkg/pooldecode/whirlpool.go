package pooldecode

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// WhirlpoolProgramID is Orca's concentrated-liquidity (Whirlpool) program,
// family C. Account layout below follows the public Whirlpool account
// struct: 8-byte discriminator, config(32), bump(1), tick_spacing(2),
// tick_spacing_seed(2), fee_rate(2), protocol_fee_rate(2), liquidity(16),
// sqrt_price(16), tick_current_index(4), protocol_fee_owed_a/b(8+8),
// token_mint_a(32), token_vault_a(32), fee_growth_global_a(16),
// token_mint_b(32), token_vault_b(32), fee_growth_global_b(16).
var WhirlpoolProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

const whirlpoolAccountMinSize = 261

type whirlpoolLayout struct {
	TickSpacing      uint16
	TickSpacingSeed  [2]uint8
	FeeRate          uint16
	ProtocolFeeRate  uint16
	Liquidity        uint128.Uint128
	SqrtPriceX64     uint128.Uint128
	TickCurrentIndex int32
}

// decodeConcentratedC decodes an Orca Whirlpool account. Mint decimals are
// not present in this fixed layout, so Price carries the raw
// (sqrt_price/2^64)^2 value — undjusted — leaving decimal correction to the
// scanners, which look up each mint's decimals via tokens.ResolveDecimals.
func decodeConcentratedC(data []byte, poolAddress, programID solana.PublicKey) (*PoolState, error) {
	if len(data) < whirlpoolAccountMinSize {
		return nil, nil
	}

	var l whirlpoolLayout
	dec := bin.NewBinDecoder(data[41:85])
	if err := dec.Decode(&l); err != nil {
		return nil, nil
	}

	mintA := solana.PublicKeyFromBytes(data[101:133])
	vaultA := solana.PublicKeyFromBytes(data[133:165])
	mintB := solana.PublicKeyFromBytes(data[181:213])
	vaultB := solana.PublicKeyFromBytes(data[213:245])

	raw := sqrtPriceToPrice(l.SqrtPriceX64)
	tick := l.TickCurrentIndex
	sqrtPrice := l.SqrtPriceX64

	return &PoolState{
		PoolAddress:  poolAddress,
		ProgramID:    programID,
		Family:       FamilyConcentratedC,
		MintA:        mintA,
		MintB:        mintB,
		VaultA:       vaultA,
		VaultB:       vaultB,
		Price:        raw,
		SqrtPriceX64: &sqrtPrice,
		Tick:         &tick,
		FeeBps:       uint32(l.FeeRate) / 100,
	}, nil
}
