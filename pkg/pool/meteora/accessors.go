package meteora

import "github.com/gagliardetto/solana-go"

// ActiveID, BinStep and Oracle expose the unexported fields the on-chain
// layout keeps package-private, for price derivation in pooldecode.
func (pool *MeteoraDlmmPool) ActiveID() int32           { return pool.activeId }
func (pool *MeteoraDlmmPool) BinStep() uint16            { return pool.binStep }
func (pool *MeteoraDlmmPool) Oracle() solana.PublicKey   { return pool.oracle }
func (pool *MeteoraDlmmPool) ReserveX() solana.PublicKey { return pool.reserveX }
func (pool *MeteoraDlmmPool) ReserveY() solana.PublicKey { return pool.reserveY }
