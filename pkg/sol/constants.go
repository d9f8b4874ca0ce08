package sol

import "github.com/gagliardetto/solana-go"

// WSOL is the wrapped-SOL mint, the universal intermediate asset pump.fun
// pools quote against.
var WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
