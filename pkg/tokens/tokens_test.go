package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMint(t *testing.T) {
	assert.Equal(t, WellKnownMints["SOL"], ResolveMint("sol"))
	assert.Equal(t, WellKnownMints["USDC"], ResolveMint("USDC"))

	unknown := "SomeRandomMintAddress1111111111111111111111"
	assert.Equal(t, unknown, ResolveMint(unknown))
}

func TestResolveDecimals(t *testing.T) {
	assert.Equal(t, 9, ResolveDecimals("SOL"))
	assert.Equal(t, 6, ResolveDecimals("USDC"))
	assert.Equal(t, 6, ResolveDecimals("not-a-known-symbol"))
}

func TestParsePair(t *testing.T) {
	target, quote, ok := ParsePair("SOL/USDC")
	assert.True(t, ok)
	assert.Equal(t, WellKnownMints["SOL"], target)
	assert.Equal(t, WellKnownMints["USDC"], quote)

	_, _, ok = ParsePair("SOL-USDC")
	assert.False(t, ok)

	_, _, ok = ParsePair("SOL/USDC/BONK")
	assert.False(t, ok)
}

func TestBorrowOverride(t *testing.T) {
	amount, ok := BorrowOverride(WellKnownMints["JUP"])
	assert.True(t, ok)
	assert.Equal(t, int64(100_000_000), amount)

	_, ok = BorrowOverride(WellKnownMints["SOL"])
	assert.False(t, ok, "SOL has a zero override, meaning use the engine default")

	_, ok = BorrowOverride("short")
	assert.False(t, ok)
}
