package flashloan

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProgramID = solana.MustPublicKeyFromBase58("2chVPk6DV21qWuyUA2eHAzATdFSHM7ykv1fVX7Gv6nor")
	testTokenMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

func TestNewClientDerivesDistinctPoolAndVaultPDAs(t *testing.T) {
	c, err := NewClient(testProgramID, testTokenMint)
	require.NoError(t, err)

	assert.False(t, c.PoolPDA.IsZero())
	assert.False(t, c.VaultPDA.IsZero())
	assert.NotEqual(t, c.PoolPDA, c.VaultPDA)

	c2, err := NewClient(testProgramID, testTokenMint)
	require.NoError(t, err)
	assert.Equal(t, c.PoolPDA, c2.PoolPDA, "PDA derivation must be deterministic")
}

func TestDeriveReceiptPDAIsPerBorrower(t *testing.T) {
	c, err := NewClient(testProgramID, testTokenMint)
	require.NoError(t, err)

	borrowerA := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	borrowerB := solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")

	receiptA, _, err := c.DeriveReceiptPDA(borrowerA)
	require.NoError(t, err)
	receiptB, _, err := c.DeriveReceiptPDA(borrowerB)
	require.NoError(t, err)

	assert.NotEqual(t, receiptA, receiptB)
}

func TestBuildBorrowInstructionEncodesDiscriminatorAndPrincipal(t *testing.T) {
	c, err := NewClient(testProgramID, testTokenMint)
	require.NoError(t, err)

	borrower := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	borrowerATA := solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN")

	ix, err := c.BuildBorrowInstruction(borrower, borrowerATA, 1_000_000)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, borrowDiscriminator, data[:8])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[8:]))
	assert.Equal(t, testProgramID, ix.ProgramID())
	assert.Len(t, ix.Accounts(), 7)
}

func TestBuildRepayInstructionEncodesDiscriminatorOnly(t *testing.T) {
	c, err := NewClient(testProgramID, testTokenMint)
	require.NoError(t, err)

	borrower := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	borrowerATA := solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN")

	ix, err := c.BuildRepayInstruction(borrower, borrowerATA)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, repayDiscriminator, data)
	assert.Len(t, ix.Accounts(), 6)
}
