package pooldecode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/uint128"

	"github.com/solarb/arbengine/pkg/pool/meteora"
	"github.com/solarb/arbengine/pkg/pool/pump"
	"github.com/solarb/arbengine/pkg/pool/raydium"
)

// fillPubkey builds a deterministic 32-byte pubkey for offset-placement
// tests, where the exact value doesn't matter as long as it's distinct and
// round-trips byte-for-byte.
func fillPubkey(b byte) solana.PublicKey {
	var buf [32]byte
	for i := range buf {
		buf[i] = b
	}
	return solana.PublicKeyFromBytes(buf[:])
}

func TestFamilyOfKnownPrograms(t *testing.T) {
	assert.Equal(t, FamilyConcentratedA, FamilyOf(raydium.RAYDIUM_CLMM_PROGRAM_ID))
	assert.Equal(t, FamilyStandardB, FamilyOf(raydium.RAYDIUM_AMM_PROGRAM_ID))
	assert.Equal(t, FamilyStandardB, FamilyOf(raydium.RAYDIUM_CPMM_PROGRAM_ID))
	assert.Equal(t, FamilyConcentratedC, FamilyOf(WhirlpoolProgramID))
	assert.Equal(t, FamilyDiscreteD, FamilyOf(meteora.MeteoraProgramID))
	assert.Equal(t, FamilyStandardB, FamilyOf(pump.PumpSwapProgramID))
}

func TestFamilyOfUnknownProgram(t *testing.T) {
	unknown := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	assert.Equal(t, FamilyUnknown, FamilyOf(unknown))
}

func TestFamilyStringAndAggregatorLabel(t *testing.T) {
	assert.Equal(t, "concentrated-a", FamilyConcentratedA.String())
	assert.Equal(t, "raydium-clmm", FamilyConcentratedA.AggregatorLabel())
	assert.Equal(t, "unknown", FamilyUnknown.String())
	assert.Equal(t, "", FamilyUnknown.AggregatorLabel())
}

func TestSqrtPriceToPriceOfOneIsOne(t *testing.T) {
	// sqrt_price = 2^64 encodes a raw price ratio of exactly 1.0.
	one := uint128.New(0, 1)
	assert.InDelta(t, 1.0, sqrtPriceToPrice(one), 1e-6)
}

func TestDecodeDispatchesOnProgramFamily(t *testing.T) {
	state, err := Decode([]byte{}, solana.PublicKey{}, raydium.RAYDIUM_AMM_PROGRAM_ID)
	assert.NoError(t, err)
	assert.Nil(t, state, "an empty account payload can't decode into a pool state")
}

func TestDecodeUnknownProgramReturnsNil(t *testing.T) {
	unknown := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	state, err := Decode([]byte{1, 2, 3}, solana.PublicKey{}, unknown)
	assert.NoError(t, err)
	assert.Nil(t, state)
}

// TestDecodeRoundTripFamilyA builds a synthetic Raydium CLMM account buffer
// with known values at CLMMPool.Decode's documented byte offsets (relative
// to the data with the 8-byte discriminator stripped) and checks the
// unified PoolState comes back with the same mints and an unsurprising
// price. SqrtPriceX64 is written little-endian, as on-chain, which is the
// byte order uint128.FromBytes reads in CLMMPool.Decode.
func TestDecodeRoundTripFamilyA(t *testing.T) {
	mintA := fillPubkey(0xA1)
	mintB := fillPubkey(0xB2)
	poolAddress := fillPubkey(0xC3)

	data := make([]byte, 8+1536)
	body := data[8:]

	copy(body[65:97], mintA[:])
	copy(body[97:129], mintB[:])
	body[225] = 6 // MintDecimals0
	body[226] = 6 // MintDecimals1
	// SqrtPriceX64 = 2^64, i.e. sqrt_price/2^64 == 1, so raw price == 1.
	body[245+8] = 1

	state, err := Decode(data, poolAddress, raydium.RAYDIUM_CLMM_PROGRAM_ID)
	assert.NoError(t, err)
	if assert.NotNil(t, state) {
		assert.Equal(t, FamilyConcentratedA, state.Family)
		assert.Equal(t, mintA, state.MintA)
		assert.Equal(t, mintB, state.MintB)
		assert.InDelta(t, 1.0, state.Price, 1e-6)
	}
}

// TestDecodeRoundTripFamilyB builds a synthetic Raydium AMM v4 account
// buffer with known values at AMMPool.Decode's documented byte offsets and
// checks the mints, vaults and fee rate come back unchanged.
func TestDecodeRoundTripFamilyB(t *testing.T) {
	baseVault := fillPubkey(0x11)
	quoteVault := fillPubkey(0x22)
	baseMint := fillPubkey(0x33)
	quoteMint := fillPubkey(0x44)
	poolAddress := fillPubkey(0x55)

	data := make([]byte, 752)
	binary.LittleEndian.PutUint64(data[144:152], 25)     // TradeFeeNumerator
	binary.LittleEndian.PutUint64(data[152:160], 10000)  // TradeFeeDenominator
	copy(data[336:368], baseVault[:])
	copy(data[368:400], quoteVault[:])
	copy(data[400:432], baseMint[:])
	copy(data[432:464], quoteMint[:])

	state, err := Decode(data, poolAddress, raydium.RAYDIUM_AMM_PROGRAM_ID)
	assert.NoError(t, err)
	if assert.NotNil(t, state) {
		assert.Equal(t, FamilyStandardB, state.Family)
		assert.Equal(t, baseMint, state.MintA)
		assert.Equal(t, quoteMint, state.MintB)
		assert.Equal(t, baseVault, state.VaultA)
		assert.Equal(t, quoteVault, state.VaultB)
		assert.Equal(t, uint32(25), state.FeeBps)
	}
}

// TestDecodeRoundTripFamilyD builds a synthetic Meteora DLMM account buffer
// with known values at MeteoraDlmmPool.Decode's documented byte offsets
// (including its hardcoded offset=552 jump to the oracle field) and checks
// the mints, reserves and bin-step price formula come back unchanged.
func TestDecodeRoundTripFamilyD(t *testing.T) {
	tokenX := fillPubkey(0x61)
	tokenY := fillPubkey(0x62)
	reserveX := fillPubkey(0x63)
	reserveY := fillPubkey(0x64)
	oracle := fillPubkey(0x65)
	poolAddress := fillPubkey(0x66)

	const activeID = int32(100)
	const binStep = uint16(10)

	data := make([]byte, 920)
	binary.LittleEndian.PutUint32(data[76:80], uint32(activeID))
	binary.LittleEndian.PutUint16(data[80:82], binStep)
	copy(data[88:120], tokenX[:])
	copy(data[120:152], tokenY[:])
	copy(data[152:184], reserveX[:])
	copy(data[184:216], reserveY[:])
	copy(data[552:584], oracle[:])

	state, err := Decode(data, poolAddress, meteora.MeteoraProgramID)
	assert.NoError(t, err)
	if assert.NotNil(t, state) {
		assert.Equal(t, FamilyDiscreteD, state.Family)
		assert.Equal(t, tokenX, state.MintA)
		assert.Equal(t, tokenY, state.MintB)
		assert.Equal(t, reserveX, state.VaultA)
		assert.Equal(t, reserveY, state.VaultB)
		if assert.NotNil(t, state.OracleAccount) {
			assert.Equal(t, oracle, *state.OracleAccount)
		}
		wantPrice := math.Pow(1+float64(binStep)/10000, float64(activeID))
		assert.InDelta(t, wantPrice, state.Price, 1e-9)
	}
}
