package pump

import (
	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

// PumpSwapProgramID is the on-chain program for pump.fun's AMM (PumpSwap).
var PumpSwapProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

var (
	// PumpGlobalConfig is PumpSwap's singleton global-config account.
	PumpGlobalConfig = solana.MustPublicKeyFromBase58("ADyA8hdefvWN2dbGGWFotbzWxrAvLW83WG6QCVXvJKqw")

	// PumpProtocolFeeRecipient and its associated token account collect the
	// protocol-side swap fee on every buy/sell.
	PumpProtocolFeeRecipient             = solana.MustPublicKeyFromBase58("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	PumpProtocolFeeRecipientTokenAccount = solana.MustPublicKeyFromBase58("94qWNrtmfn42h3ZjUZwWvK1MEo9uVmmrBPd2hpNjYDjb")
)

// BaseDecimal/BaseDecimalInt scale the 0.25% fee multiplier used in Quote.
const (
	BaseDecimalInt = 1_000_000
)

var BaseDecimal = math.NewInt(BaseDecimalInt)
