package raydium

import (
	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

// On-chain program identifiers for the three Raydium pool families this
// package decodes and builds swap instructions for.
var (
	RAYDIUM_AMM_PROGRAM_ID  = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RAYDIUM_CLMM_PROGRAM_ID = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")
	RAYDIUM_CPMM_PROGRAM_ID = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

	TOKEN_2022_PROGRAM_ID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MEMO_PROGRAM_ID       = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

// AUTH_SEED is the CPMM vault-authority PDA seed.
const AUTH_SEED = "vault_and_lp_mint_auth_seed"

// SwapBaseInputDiscriminator is the Anchor instruction discriminator for
// Raydium CPMM's swapBaseInput instruction (sha256("global:swap_base_input")[:8]).
var SwapBaseInputDiscriminator = []byte{143, 190, 90, 218, 196, 30, 51, 222}

// LIQUIDITY_FEES_NUMERATOR/DENOMINATOR give Raydium AMM v4's standard
// 25 bps swap fee, applied identically to the legacy AMM and CPMM pools.
var (
	LIQUIDITY_FEES_NUMERATOR   = cosmath.NewInt(25)
	LIQUIDITY_FEES_DENOMINATOR = cosmath.NewInt(10000)
)

// Upper/lower-case aliases: clmmPool.go's swap-step math refers to these in
// SCREAMING_SNAKE_CASE while clmm_tickerarray.go defines the same bounds in
// CamelCase. Both names are kept so either call site resolves.
var (
	MIN_SQRT_PRICE_X64 = MinSqrtPriceX64
	MAX_SQRT_PRICE_X64 = MaxSqrtPriceX64
	MIN_TICK           = int64(MinTick)
	MAX_TICK           = int64(MaxTick)
)
