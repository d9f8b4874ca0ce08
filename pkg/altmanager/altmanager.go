// Package altmanager maintains one Address Lookup Table of frequently
// used accounts so raw multi-leg swap transactions stay under Solana's
// 1232-byte limit — each account moved into the table turns a 32-byte
// pubkey into a 1-byte index.
package altmanager

import (
	"context"
	"encoding/binary"
	"fmt"

	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solarb/arbengine/pkg/sol"
)

var altProgramID = solana.MustPublicKeyFromBase58("AddressLookupTab1e1111111111111111111111111")

const extendBatchSize = 20

// Manager owns one ALT keyed to an authority keypair, extending it with
// new accounts as the Engine discovers pools worth pinning.
type Manager struct {
	solClient *sol.Client
	authority solana.PrivateKey

	tableAddress solana.PublicKey
	addresses    []solana.PublicKey
	known        map[string]struct{}
}

// New constructs a Manager for authority. Call Initialize before using it.
func New(solClient *sol.Client, authority solana.PrivateKey) *Manager {
	return &Manager{solClient: solClient, authority: authority, known: map[string]struct{}{}}
}

// TableAddress returns the managed ALT's address, or the zero key before
// Initialize has run.
func (m *Manager) TableAddress() solana.PublicKey { return m.tableAddress }

// Addresses returns the table's current contents, for
// solana.TransactionAddressTables.
func (m *Manager) Addresses() []solana.PublicKey {
	out := make([]solana.PublicKey, len(m.addresses))
	copy(out, m.addresses)
	return out
}

// Initialize loads existingTable's current contents when it is non-zero
// and can be read on-chain; otherwise (the zero key, or a failed read) it
// creates a fresh on-chain ALT.
func (m *Manager) Initialize(ctx context.Context, existingTable solana.PublicKey) error {
	if !existingTable.IsZero() {
		if err := m.load(ctx, existingTable); err == nil {
			return nil
		}
	}
	return m.createTable(ctx)
}

func (m *Manager) createTable(ctx context.Context) error {
	slotResult, err := m.solClient.RawRPC().GetSlot(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("fetch recent slot: %w", err)
	}
	recentSlot := uint64(slotResult)

	authorityPK := m.authority.PublicKey()
	tableAddress, bump, err := deriveLookupTableAddress(authorityPK, recentSlot)
	if err != nil {
		return fmt.Errorf("derive lookup table address: %w", err)
	}

	data := make([]byte, 4+8+1)
	binary.LittleEndian.PutUint32(data[0:4], 0) // CreateLookupTable discriminator
	binary.LittleEndian.PutUint64(data[4:12], recentSlot)
	data[12] = bump

	createIx := solana.NewInstruction(altProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(tableAddress, true, false),
		solana.NewAccountMeta(authorityPK, false, true),
		solana.NewAccountMeta(authorityPK, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, data)

	tx, err := m.solClient.SignTransaction(ctx, []solana.PrivateKey{m.authority}, createIx)
	if err != nil {
		return fmt.Errorf("sign create-lookup-table transaction: %w", err)
	}

	if _, err := m.solClient.SendTx(ctx, tx); err != nil {
		return fmt.Errorf("send create-lookup-table transaction: %w", err)
	}

	m.tableAddress = tableAddress
	m.addresses = nil
	m.known = map[string]struct{}{}
	return nil
}

// Ensure extends the ALT with any accounts not already present,
// skipping the signing authority itself, in batches of at most 20 per
// transaction (conservative relative to the program's ~30-account cap).
func (m *Manager) Ensure(ctx context.Context, accounts []solana.PublicKey) error {
	if m.tableAddress.IsZero() {
		if err := m.createTable(ctx); err != nil {
			return err
		}
	}

	fresh := freshAccounts(m.known, m.authority.PublicKey().String(), accounts)
	if len(fresh) == 0 {
		return nil
	}

	for _, batch := range batchAccounts(fresh, extendBatchSize) {
		extendIx := buildExtendInstruction(m.tableAddress, m.authority.PublicKey(), batch)
		tx, err := m.solClient.SignTransaction(ctx, []solana.PrivateKey{m.authority}, extendIx)
		if err != nil {
			return fmt.Errorf("sign extend-lookup-table transaction: %w", err)
		}
		if _, err := m.solClient.SendTx(ctx, tx); err != nil {
			return fmt.Errorf("send extend-lookup-table transaction: %w", err)
		}

		for _, a := range batch {
			m.known[a.String()] = struct{}{}
		}
		m.addresses = append(m.addresses, batch...)
	}

	return m.load(ctx, m.tableAddress)
}

// freshAccounts filters accounts down to the ones not already known and
// not the signing authority itself (the authority is implicit in every
// transaction and never needs a table slot).
func freshAccounts(known map[string]struct{}, authorityStr string, accounts []solana.PublicKey) []solana.PublicKey {
	var fresh []solana.PublicKey
	for _, a := range accounts {
		if a.String() == authorityStr {
			continue
		}
		if _, ok := known[a.String()]; ok {
			continue
		}
		fresh = append(fresh, a)
	}
	return fresh
}

// batchAccounts splits fresh into chunks of at most size, preserving order.
func batchAccounts(fresh []solana.PublicKey, size int) [][]solana.PublicKey {
	var batches [][]solana.PublicKey
	for start := 0; start < len(fresh); start += size {
		end := start + size
		if end > len(fresh) {
			end = len(fresh)
		}
		batches = append(batches, fresh[start:end])
	}
	return batches
}

func (m *Manager) load(ctx context.Context, tableAddress solana.PublicKey) error {
	table, err := addresslookuptable.GetAddressLookupTable(ctx, m.solClient.RawRPC(), tableAddress)
	if err != nil {
		return fmt.Errorf("fetch lookup table %s: %w", tableAddress, err)
	}

	m.tableAddress = tableAddress
	m.addresses = table.Addresses
	m.known = make(map[string]struct{}, len(table.Addresses))
	for _, a := range table.Addresses {
		m.known[a.String()] = struct{}{}
	}
	return nil
}

func deriveLookupTableAddress(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, uint8, error) {
	slotBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(slotBytes, recentSlot)
	return solana.FindProgramAddress([][]byte{authority.Bytes(), slotBytes}, altProgramID)
}

func buildExtendInstruction(table, authority solana.PublicKey, newAddresses []solana.PublicKey) solana.Instruction {
	data := make([]byte, 4+8+32*len(newAddresses))
	binary.LittleEndian.PutUint32(data[0:4], 2) // ExtendLookupTable discriminator
	binary.LittleEndian.PutUint64(data[4:12], uint64(len(newAddresses)))
	for i, addr := range newAddresses {
		copy(data[12+i*32:12+(i+1)*32], addr.Bytes())
	}

	return solana.NewInstruction(altProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(table, true, false),
		solana.NewAccountMeta(authority, false, true),
		solana.NewAccountMeta(authority, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, data)
}
