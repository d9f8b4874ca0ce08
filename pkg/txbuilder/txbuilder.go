// Package txbuilder assembles the atomic flash-loan arbitrage transaction:
// compute budget -> borrow -> swap leg(s) -> repay -> optional Jito tip,
// preferring direct on-chain swap instructions over an aggregator's and
// falling back to Jupiter-supplied instructions only when a leg has no
// pkg.Pool implementation to build it directly.
package txbuilder

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"

	cosmath "cosmossdk.io/math"

	"github.com/solarb/arbengine/pkg"
	"github.com/solarb/arbengine/pkg/flashloan"
	"github.com/solarb/arbengine/pkg/sol"
)

// maxTransactionBytes is Solana's serialized-transaction size ceiling.
const maxTransactionBytes = 1232

// Leg is one swap hop the builder must turn into instructions: either a
// direct on-chain pool (preferred) or a pre-fetched Jupiter instruction
// set (fallback, when Target has no decodable pkg.Pool in hand).
type Leg struct {
	Pool               pkg.Pool // nil when using a Jupiter-sourced leg
	InputMint          string
	AmountIn           cosmath.Int
	MinOut             cosmath.Int
	UserBaseAccount    solana.PublicKey
	UserQuoteAccount   solana.PublicKey
	JupiterInstructions json.RawMessage // setup/swap/cleanup payload, when Pool is nil
	JupiterALTs         []string
}

// Plan is everything the Builder needs to assemble one atomic transaction.
type Plan struct {
	Borrower             solana.PrivateKey
	BorrowerTokenAccount solana.PublicKey
	FlashLoan            *flashloan.Client
	BorrowPrincipal      uint64
	Legs                 []Leg
	ComputeUnitLimit     uint32
	ComputeUnitPrice     uint64
	JitoTipInstruction   solana.Instruction // nil to skip
}

// Builder assembles and (optionally) simulates arb transactions.
type Builder struct {
	solClient *sol.Client
}

// New constructs a Builder backed by solClient.
func New(solClient *sol.Client) *Builder {
	return &Builder{solClient: solClient}
}

// Build assembles plan into a signed, ready-to-send versioned transaction,
// along with the blockhash's last-valid block height for confirmation
// polling.
func (b *Builder) Build(ctx context.Context, plan Plan) (*solana.Transaction, uint64, error) {
	borrowerPK := plan.Borrower.PublicKey()

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(plan.ComputeUnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(plan.ComputeUnitPrice).Build(),
	}

	borrowIx, err := plan.FlashLoan.BuildBorrowInstruction(borrowerPK, plan.BorrowerTokenAccount, plan.BorrowPrincipal)
	if err != nil {
		return nil, 0, fmt.Errorf("build borrow instruction: %w", err)
	}
	instructions = append(instructions, borrowIx)

	var altAddresses []string
	for _, leg := range plan.Legs {
		if leg.Pool != nil {
			legIxs, err := leg.Pool.BuildSwapInstructions(
				ctx, b.solClient, borrowerPK, leg.InputMint,
				leg.AmountIn, leg.MinOut, leg.UserBaseAccount, leg.UserQuoteAccount,
			)
			if err != nil {
				return nil, 0, fmt.Errorf("build direct swap instructions for pool %s: %w", leg.Pool.GetID(), err)
			}
			instructions = append(instructions, legIxs...)
			continue
		}

		legIxs, legALTs, err := decodeJupiterLeg(leg.JupiterInstructions)
		if err != nil {
			return nil, 0, fmt.Errorf("decode jupiter leg: %w", err)
		}
		instructions = append(instructions, legIxs...)
		altAddresses = append(altAddresses, legALTs...)
		altAddresses = append(altAddresses, leg.JupiterALTs...)
	}

	repayIx, err := plan.FlashLoan.BuildRepayInstruction(borrowerPK, plan.BorrowerTokenAccount)
	if err != nil {
		return nil, 0, fmt.Errorf("build repay instruction: %w", err)
	}
	instructions = append(instructions, repayIx)

	if plan.JitoTipInstruction != nil {
		instructions = append(instructions, plan.JitoTipInstruction)
	}

	lookupTables, err := b.loadLookupTables(ctx, altAddresses)
	if err != nil {
		return nil, 0, fmt.Errorf("load address lookup tables: %w", err)
	}

	blockhashResult, err := b.solClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch latest blockhash: %w", err)
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(borrowerPK)}
	if len(lookupTables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(lookupTables))
	}

	tx, err := solana.NewTransaction(instructions, blockhashResult.Value.Blockhash, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("assemble transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(borrowerPK) {
			return &plan.Borrower
		}
		return nil
	}); err != nil {
		return nil, 0, fmt.Errorf("sign transaction: %w", err)
	}

	serialized, err := tx.MarshalBinary()
	if err != nil {
		return nil, 0, fmt.Errorf("serialize transaction: %w", err)
	}
	if len(serialized) > maxTransactionBytes {
		return nil, 0, fmt.Errorf("transaction too large: %d bytes (max %d)", len(serialized), maxTransactionBytes)
	}

	return tx, blockhashResult.Value.LastValidBlockHeight, nil
}

// Simulate runs the transaction through the cluster's simulator without
// sending it, returning the consumed compute units for diagnostics.
func (b *Builder) Simulate(ctx context.Context, tx *solana.Transaction) (units uint64, logs []string, err error) {
	result, err := b.solClient.SimulateTransaction(ctx, tx)
	if err != nil {
		return 0, nil, err
	}
	if result.Value.Err != nil {
		return uint64(result.Value.UnitsConsumed), result.Value.Logs, fmt.Errorf("simulation failed: %v", result.Value.Err)
	}
	return uint64(result.Value.UnitsConsumed), result.Value.Logs, nil
}

func (b *Builder) loadLookupTables(ctx context.Context, addresses []string) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	unique := map[string]struct{}{}
	for _, a := range addresses {
		unique[a] = struct{}{}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	out := make(map[solana.PublicKey]solana.PublicKeySlice, len(unique))
	for addrStr := range unique {
		addr, err := solana.PublicKeyFromBase58(addrStr)
		if err != nil {
			continue
		}
		table, err := addresslookuptable.GetAddressLookupTable(ctx, b.solClient.RawRPC(), addr)
		if err != nil {
			continue
		}
		out[addr] = table.Addresses
	}
	return out, nil
}

// jupiterInstructionPayload mirrors the shape of a Jupiter swap/setup/
// cleanup instruction in the swap-instructions response.
type jupiterInstructionPayload struct {
	ProgramID string `json:"programId"`
	Data      string `json:"data"`
	Accounts  []struct {
		Pubkey     string `json:"pubkey"`
		IsSigner   bool   `json:"isSigner"`
		IsWritable bool   `json:"isWritable"`
	} `json:"accounts"`
}

func (p jupiterInstructionPayload) toInstruction() (solana.Instruction, error) {
	programID, err := solana.PublicKeyFromBase58(p.ProgramID)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, err
	}
	accounts := make(solana.AccountMetaSlice, len(p.Accounts))
	for i, a := range p.Accounts {
		pk, err := solana.PublicKeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, err
		}
		accounts[i] = solana.NewAccountMeta(pk, a.IsWritable, a.IsSigner)
	}
	return solana.NewInstruction(programID, accounts, data), nil
}

type jupiterSwapResponse struct {
	SetupInstructions            []jupiterInstructionPayload `json:"setupInstructions"`
	SwapInstruction              jupiterInstructionPayload   `json:"swapInstruction"`
	CleanupInstruction           *jupiterInstructionPayload  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string                    `json:"addressLookupTableAddresses"`
}

func decodeJupiterLeg(raw json.RawMessage) ([]solana.Instruction, []string, error) {
	var resp jupiterSwapResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, err
	}

	var instrs []solana.Instruction
	for _, setup := range resp.SetupInstructions {
		ix, err := setup.toInstruction()
		if err != nil {
			return nil, nil, err
		}
		instrs = append(instrs, ix)
	}

	swapIx, err := resp.SwapInstruction.toInstruction()
	if err != nil {
		return nil, nil, err
	}
	instrs = append(instrs, swapIx)

	if resp.CleanupInstruction != nil {
		cleanupIx, err := resp.CleanupInstruction.toInstruction()
		if err != nil {
			return nil, nil, err
		}
		instrs = append(instrs, cleanupIx)
	}

	return instrs, resp.AddressLookupTableAddresses, nil
}
