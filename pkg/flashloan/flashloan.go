// Package flashloan builds Borrow/Repay instructions against the engine's
// Anchor-based flash-loan program and decodes its lending-pool state.
package flashloan

import (
	"context"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/solarb/arbengine/pkg/sol"
)

var borrowDiscriminator = []byte{64, 203, 133, 3, 2, 181, 8, 180}
var repayDiscriminator = []byte{119, 239, 18, 45, 194, 107, 31, 238}

const (
	lendingPoolSeed      = "lending_pool"
	poolVaultSeed        = "pool_vault"
	flashLoanReceiptSeed = "flash_loan_receipt"
)

// Client derives the lending-pool and vault PDAs for one token mint and
// builds the Borrow/Repay instruction pair around them.
type Client struct {
	programID solana.PublicKey
	tokenMint solana.PublicKey

	PoolPDA  solana.PublicKey
	VaultPDA solana.PublicKey
}

// PoolState mirrors the on-chain lending-pool account layout: an 8-byte
// Anchor discriminator followed by admin(32), mint(32), vault(32),
// total_deposits/shares/fees(8 each), fee_bps(2), bump/vault_bump(1 each)
// and an is_active flag(1).
type PoolState struct {
	Admin            solana.PublicKey
	TokenMint        solana.PublicKey
	Vault            solana.PublicKey
	TotalDeposits    uint64
	TotalShares      uint64
	TotalFeesEarned  uint64
	FeeBps           uint16
	Bump             uint8
	VaultBump        uint8
	IsActive         bool
}

// NewClient derives the lending-pool and vault PDAs for tokenMint under
// programID.
func NewClient(programID, tokenMint solana.PublicKey) (*Client, error) {
	poolPDA, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(lendingPoolSeed), tokenMint.Bytes()},
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive lending pool PDA: %w", err)
	}
	vaultPDA, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(poolVaultSeed), poolPDA.Bytes()},
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive pool vault PDA: %w", err)
	}

	return &Client{
		programID: programID,
		tokenMint: tokenMint,
		PoolPDA:   poolPDA,
		VaultPDA:  vaultPDA,
	}, nil
}

// DeriveReceiptPDA derives the per-borrower flash-loan receipt PDA, which
// the program opens for the duration of a single borrow/repay pair.
func (c *Client) DeriveReceiptPDA(borrower solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(flashLoanReceiptSeed), c.PoolPDA.Bytes(), borrower.Bytes()},
		c.programID,
	)
}

// GetPoolState fetches and decodes the lending-pool account.
func (c *Client) GetPoolState(ctx context.Context, solClient *sol.Client) (*PoolState, error) {
	result, err := solClient.GetAccountInfoWithOpts(ctx, c.PoolPDA)
	if err != nil {
		return nil, fmt.Errorf("fetch lending pool account: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("lending pool account not found: %s", c.PoolPDA)
	}

	data := result.Value.Data.GetBinary()
	if len(data) < 8+32+32+32+8+8+8+2+1+1+1 {
		return nil, fmt.Errorf("lending pool account too short: %d bytes", len(data))
	}
	data = data[8:]

	dec := bin.NewBinDecoder(data)
	var state PoolState
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("decode lending pool account: %w", err)
	}
	return &state, nil
}

// BuildBorrowInstruction builds the borrow_flash_loan instruction: opens
// the receipt PDA and transfers principal from the vault to the
// borrower's token account within a single atomic transaction.
func (c *Client) BuildBorrowInstruction(
	borrower, borrowerTokenAccount solana.PublicKey,
	principal uint64,
) (solana.Instruction, error) {
	receiptPDA, _, err := c.DeriveReceiptPDA(borrower)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8+8)
	copy(data[:8], borrowDiscriminator)
	binary.LittleEndian.PutUint64(data[8:], principal)

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(c.PoolPDA, true, false),
		solana.NewAccountMeta(receiptPDA, true, false),
		solana.NewAccountMeta(c.VaultPDA, true, false),
		solana.NewAccountMeta(borrowerTokenAccount, true, false),
		solana.NewAccountMeta(borrower, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}

	return &genericInstruction{programID: c.programID, data: data, accounts: accounts}, nil
}

// BuildRepayInstruction builds the repay_flash_loan instruction, which
// takes no arguments: the program reads the principal owed from the
// receipt PDA it opened during Borrow and closes it.
func (c *Client) BuildRepayInstruction(
	borrower, borrowerTokenAccount solana.PublicKey,
) (solana.Instruction, error) {
	receiptPDA, _, err := c.DeriveReceiptPDA(borrower)
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(c.PoolPDA, true, false),
		solana.NewAccountMeta(receiptPDA, true, false),
		solana.NewAccountMeta(c.VaultPDA, true, false),
		solana.NewAccountMeta(borrowerTokenAccount, true, false),
		solana.NewAccountMeta(borrower, true, true),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}

	return &genericInstruction{programID: c.programID, data: append([]byte{}, repayDiscriminator...), accounts: accounts}, nil
}

// genericInstruction is a minimal solana.Instruction for pre-built
// Anchor-style instructions that have no typed args worth a dedicated
// BaseVariant type.
type genericInstruction struct {
	programID solana.PublicKey
	data      []byte
	accounts  solana.AccountMetaSlice
}

func (i *genericInstruction) ProgramID() solana.PublicKey      { return i.programID }
func (i *genericInstruction) Accounts() []*solana.AccountMeta  { return i.accounts }
func (i *genericInstruction) Data() ([]byte, error)            { return i.data, nil }
