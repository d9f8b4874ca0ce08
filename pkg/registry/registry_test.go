package registry

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, pairKey("A", "B"), pairKey("B", "A"))
}

func TestRegisterDeduplicatesByAddress(t *testing.T) {
	r := New(nil, "")
	pool := PoolInfo{
		Address: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),
		Dex:     "raydium_clmm",
		TokenA:  "SOL",
		TokenB:  "USDC",
	}

	r.Register(pool)
	r.Register(pool) // duplicate address, same pair

	assert.Equal(t, 1, r.TotalPools())
	assert.Equal(t, 1, r.TotalPairs())
	assert.Len(t, r.PairPools("SOL", "USDC"), 1)
	assert.Len(t, r.PairPools("USDC", "SOL"), 1, "pair lookup should be order independent")
}

func TestPoolByAddressAndAllPools(t *testing.T) {
	r := New(nil, "")
	a := PoolInfo{Address: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), TokenA: "USDC", TokenB: "SOL", Dex: "raydium_v4"}
	b := PoolInfo{Address: solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), TokenA: "USDT", TokenB: "SOL", Dex: "meteora"}
	r.Register(a)
	r.Register(b)

	got, ok := r.PoolByAddress(a.Address.String())
	require.True(t, ok)
	assert.Equal(t, "raydium_v4", got.Dex)

	_, ok = r.PoolByAddress("not-a-registered-address")
	assert.False(t, ok)

	all := r.AllPools()
	require.Len(t, all, 2)
	assert.True(t, all[0].Address.String() < all[1].Address.String(), "AllPools should be sorted by address")
}

func TestLabelToProgram(t *testing.T) {
	cases := []struct {
		label    string
		wantDex  string
		wantZero bool
	}{
		{"Raydium CLMM", "raydium_clmm", false},
		{"Raydium CP", "raydium_cpmm", false},
		{"Raydium V4 AMM", "raydium_v4", false},
		{"Orca Whirlpool", "orca", false},
		{"Meteora DLMM", "meteora", false},
		{"PumpSwap", "pumpswap", false},
		{"Phoenix", "", true},
	}

	for _, c := range cases {
		programID, dex := labelToProgram(c.label)
		assert.Equal(t, c.wantDex, dex, c.label)
		assert.Equal(t, c.wantZero, programID.IsZero(), c.label)
	}
}

func TestPairPoolsUnknownPairReturnsNil(t *testing.T) {
	r := New(nil, "")
	assert.Nil(t, r.PairPools("X", "Y"))
}
