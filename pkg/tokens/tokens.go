// Package tokens holds well-known mint metadata and the per-pair
// borrow-amount override table the Engine consults before each scan.
package tokens

import "strings"

// WellKnownMints resolves a ticker symbol to its mainnet mint address.
var WellKnownMints = map[string]string{
	"SOL":      "So11111111111111111111111111111111111111112",
	"USDC":     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"USDT":     "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"JUP":      "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
	"RAY":      "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
	"ORCA":     "orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE",
	"PYTH":     "HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3",
	"RENDER":   "rndrizKT3MK1iimdxRdWabcF7Zg7AR5T4nud4EkHBof",
	"JTO":      "jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL",
	"MSOL":     "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",
	"JITOSOL":  "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn",
	"BSOL":     "bSo13r4TkiE4KumL71LsHTPpL2euBYLFx6h9HP3piy1",
	"BONK":     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	"WIF":      "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
}

// Decimals maps a ticker symbol to its mint's decimal exponent. Unknown
// symbols default to 6 (the common SPL-token decimal count).
var Decimals = map[string]int{
	"SOL": 9, "USDC": 6, "USDT": 6, "JUP": 6, "RAY": 6, "ORCA": 6,
	"PYTH": 6, "RENDER": 8, "JTO": 9, "MSOL": 9, "JITOSOL": 9,
	"BSOL": 9, "BONK": 5, "WIF": 6,
}

// borrowOverrides is keyed by the first 8 characters of the target mint's
// base58 address, tiered by historical liquidity depth. A zero value (or a
// missing key) means "use the engine's configured default."
var borrowOverrides = map[string]int64{
	"So111111": 0,           // SOL — deep liquidity, full default borrow
	"Es9vMFrz": 0,           // USDT
	"JUPyiwrY": 100_000_000, // JUP — $100
	"4k3Dyjzv": 100_000_000, // RAY
	"orcaEKTd": 100_000_000, // ORCA
	"mSoLzYCx": 100_000_000, // mSOL
	"J1toso1u": 100_000_000, // jitoSOL
	"jtojtome": 100_000_000, // JTO
	"rndrizKT": 100_000_000, // RENDER
	"EKpQGSJt": 50_000_000,  // WIF — $50
	"HZ1JovNi": 50_000_000,  // PYTH
	"bSo13r4T": 50_000_000,  // bSOL
	"DezXAZ8z": 20_000_000,  // BONK — $20
}

// ResolveMint returns the mint address for a ticker symbol, or the input
// unchanged if it is already a mint address (or unknown).
func ResolveMint(symbolOrMint string) string {
	if mint, ok := WellKnownMints[strings.ToUpper(symbolOrMint)]; ok {
		return mint
	}
	return symbolOrMint
}

// ResolveDecimals returns the decimal exponent for a ticker symbol or mint,
// defaulting to 6 when unknown.
func ResolveDecimals(symbolOrMint string) int {
	if d, ok := Decimals[strings.ToUpper(symbolOrMint)]; ok {
		return d
	}
	for symbol, mint := range WellKnownMints {
		if mint == symbolOrMint {
			return Decimals[symbol]
		}
	}
	return 6
}

// ParsePair splits "TARGET/QUOTE" into resolved (target, quote) mints.
func ParsePair(pair string) (target, quote string, ok bool) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	return ResolveMint(parts[0]), ResolveMint(parts[1]), true
}

// BorrowOverride returns the tiered default borrow principal for a target
// mint, and whether an override exists. Absence means "use the global
// default."
func BorrowOverride(targetMint string) (int64, bool) {
	if len(targetMint) < 8 {
		return 0, false
	}
	v, ok := borrowOverrides[targetMint[:8]]
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}
