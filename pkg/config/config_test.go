package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndRequiredField(t *testing.T) {
	t.Setenv("ARB_RPC_URL", "https://api.mainnet-beta.solana.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)
	assert.Equal(t, "SOL/USDC", cfg.Pairs)
	assert.Equal(t, 5, cfg.MinProfitBps)
	assert.True(t, cfg.DryRun)
}

func TestLoadMissingRequiredFieldErrors(t *testing.T) {
	os.Unsetenv("ARB_RPC_URL")
	_, err := Load()
	assert.Error(t, err)
}

func TestPairListTrimsAndDropsEmpty(t *testing.T) {
	c := &Config{Pairs: " SOL/USDC , JUP/USDC ,,RAY/SOL"}
	assert.Equal(t, []string{"SOL/USDC", "JUP/USDC", "RAY/SOL"}, c.PairList())
}

func TestPairListEmpty(t *testing.T) {
	c := &Config{Pairs: ""}
	assert.Empty(t, c.PairList())
}
