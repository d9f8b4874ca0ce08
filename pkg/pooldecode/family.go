// Package pooldecode converts raw account payloads into a unified pool-state
// record, dispatching on the owning program identifier to one of four AMM
// family decoders.
package pooldecode

import (
	"math"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/solarb/arbengine/pkg/pool/meteora"
	"github.com/solarb/arbengine/pkg/pool/pump"
	"github.com/solarb/arbengine/pkg/pool/raydium"
)

// Family is the closed four-valued enum over supported AMM kinds.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyConcentratedA
	FamilyStandardB
	FamilyConcentratedC
	FamilyDiscreteD
)

func (f Family) String() string {
	switch f {
	case FamilyConcentratedA:
		return "concentrated-a"
	case FamilyStandardB:
		return "standard-b"
	case FamilyConcentratedC:
		return "concentrated-c"
	case FamilyDiscreteD:
		return "discrete-d"
	default:
		return "unknown"
	}
}

// AggregatorLabel is the lowercase venue label the aggregator uses to tag
// route hops of this family.
func (f Family) AggregatorLabel() string {
	switch f {
	case FamilyConcentratedA:
		return "raydium-clmm"
	case FamilyStandardB:
		return "raydium"
	case FamilyConcentratedC:
		return "whirlpool"
	case FamilyDiscreteD:
		return "meteora-dlmm"
	default:
		return ""
	}
}

// familyByProgram maps a program identifier to its decoding family.
var familyByProgram = map[solana.PublicKey]Family{
	raydium.RAYDIUM_CLMM_PROGRAM_ID: FamilyConcentratedA,
	raydium.RAYDIUM_AMM_PROGRAM_ID:  FamilyStandardB,
	raydium.RAYDIUM_CPMM_PROGRAM_ID: FamilyStandardB,
	WhirlpoolProgramID:              FamilyConcentratedC,
	meteora.MeteoraProgramID:        FamilyDiscreteD,
	pump.PumpSwapProgramID:          FamilyStandardB,
}

// FamilyOf reports the decoding family for a program identifier, or
// FamilyUnknown if it is not one of the four supported AMM families.
func FamilyOf(programID solana.PublicKey) Family {
	if f, ok := familyByProgram[programID]; ok {
		return f
	}
	return FamilyUnknown
}

// PoolState is the unified pool-state record every family decoder produces.
type PoolState struct {
	PoolAddress solana.PublicKey
	ProgramID   solana.PublicKey
	Family      Family

	MintA solana.PublicKey
	MintB solana.PublicKey

	VaultA solana.PublicKey
	VaultB solana.PublicKey

	// Price is decimal-adjusted quote-B-per-A. Left at zero for family B,
	// whose accounts carry no reserves; nothing fills it in afterwards.
	Price float64

	SqrtPriceX64 *uint128.Uint128
	Tick         *int32

	FeeBps uint32

	OracleAccount    *solana.PublicKey
	ConfigAccount    *solana.PublicKey
	ObservationState *solana.PublicKey
}

// Decode dispatches on programID to the matching family decoder. Unknown
// families return (nil, nil): never fail the caller's batch over one
// unrecognized account.
func Decode(data []byte, poolAddress solana.PublicKey, programID solana.PublicKey) (*PoolState, error) {
	switch FamilyOf(programID) {
	case FamilyConcentratedA:
		return decodeConcentratedA(data, poolAddress, programID)
	case FamilyStandardB:
		return decodeStandardB(data, poolAddress, programID)
	case FamilyConcentratedC:
		return decodeConcentratedC(data, poolAddress, programID)
	case FamilyDiscreteD:
		return decodeDiscreteD(data, poolAddress, programID)
	default:
		return nil, nil
	}
}

// sqrtPriceToPrice implements raw_price = (sqrt_price/2^64)^2, the shared
// concentrated-pool price derivation for families A and C.
func sqrtPriceToPrice(sqrtPriceX64 uint128.Uint128) float64 {
	f := new(bigFloatFromUint128).set(sqrtPriceX64)
	ratio := f.float / math.Pow(2, 64)
	return ratio * ratio
}

// bigFloatFromUint128 avoids importing math/big at every call site; kept
// minimal since only a float64 approximation is needed for scanning.
type bigFloatFromUint128 struct {
	float float64
}

func (b *bigFloatFromUint128) set(v uint128.Uint128) *bigFloatFromUint128 {
	hi := float64(v.Hi) * math.Pow(2, 64)
	lo := float64(v.Lo)
	b.float = hi + lo
	return b
}

// decimalAdjust scales a raw concentrated-pool price by 10^(decA-decB).
func decimalAdjust(rawPrice float64, decA, decB uint8) float64 {
	return rawPrice * math.Pow(10, float64(int(decA)-int(decB)))
}
