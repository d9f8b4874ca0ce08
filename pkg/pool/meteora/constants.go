package meteora

import (
	"github.com/gagliardetto/solana-go"
	"github.com/solarb/arbengine/pkg/anchor"
)

// MeteoraProgramID is the on-chain program for Meteora's DLMM (discrete
// liquidity market maker / bin-step) pools.
var MeteoraProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")

// MemoProgramID is the SPL memo program, attached to DLMM swaps by the
// reference SDK for off-chain indexing.
var MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// Swap2IxDiscm is the Anchor discriminator for DLMM's swap2 instruction.
var Swap2IxDiscm = [8]byte(anchor.GetDiscriminator("global", "swap2"))

const eventAuthoritySeed = "__event_authority"

// DeriveEventAuthorityPDA derives the Anchor CPI event-authority account
// that DLMM's swap2 instruction requires as a trailing account.
func DeriveEventAuthorityPDA() solana.PublicKey {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte(eventAuthoritySeed)}, MeteoraProgramID)
	if err != nil {
		panic(err)
	}
	return pda
}
