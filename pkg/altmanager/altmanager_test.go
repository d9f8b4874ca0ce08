package altmanager

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveLookupTableAddressIsDeterministic(t *testing.T) {
	authority := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	addr1, bump1, err := deriveLookupTableAddress(authority, 12345)
	require.NoError(t, err)

	addr2, bump2, err := deriveLookupTableAddress(authority, 12345)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
	assert.Equal(t, bump1, bump2)

	addr3, _, err := deriveLookupTableAddress(authority, 99999)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, addr3, "a different recent slot must derive a different table address")
}

func TestBuildExtendInstructionEncodesAddressCountAndBytes(t *testing.T) {
	table := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	authority := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	newAddrs := []solana.PublicKey{
		solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"),
		solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"),
	}

	ix := buildExtendInstruction(table, authority, newAddrs)
	data, err := ix.Data()
	require.NoError(t, err)

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, newAddrs[0].Bytes(), data[12:44])
	assert.Equal(t, newAddrs[1].Bytes(), data[44:76])

	accounts := ix.Accounts()
	require.Len(t, accounts, 4)
	assert.Equal(t, table, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
}

// TestLookupTableExtendScenarioE6 reproduces the lookup-table extend
// worked example: starting from an empty known set, ensuring 25 addresses
// not already known (and excluding the authority) must plan two extend
// batches of sizes 20 and 5, covering every requested address exactly once.
func TestLookupTableExtendScenarioE6(t *testing.T) {
	authority := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	accounts := make([]solana.PublicKey, 0, 26)
	accounts = append(accounts, authority) // must be excluded, not counted toward the 25
	for i := 0; i < 25; i++ {
		var raw [32]byte
		raw[0] = byte(i + 1)
		accounts = append(accounts, solana.PublicKeyFromBytes(raw[:]))
	}

	fresh := freshAccounts(map[string]struct{}{}, authority.String(), accounts)
	require.Len(t, fresh, 25, "the authority must be excluded from the fresh set")

	batches := batchAccounts(fresh, extendBatchSize)
	require.Len(t, batches, 2, "25 fresh addresses at a batch size of 20 must split into two extend transactions")
	assert.Len(t, batches[0], 20)
	assert.Len(t, batches[1], 5)

	var total []solana.PublicKey
	for _, b := range batches {
		total = append(total, b...)
	}
	assert.ElementsMatch(t, fresh, total)
}
