package ledger

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/openpool/betledger/pkg/types"
)

// Record store sentinels. Backends return these from get/insert calls; the
// engine maps them onto the client-facing error taxonomy per operation.
var (
	// ErrNotFound is returned when no record exists at an address.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when inserting at an already-occupied address.
	ErrDuplicate = errors.New("record already exists")
)

// Bet is one binary proposition with a pooled stake on each side. The address
// is derived from the title alone, so a title maps to exactly one bet.
//
// TotalYesAmount + TotalNoAmount always equals the sum of UserBet.Amount over
// all user bets referencing this bet; the engine recomputes both sides of
// that invariant from per-entity records and never trusts caller input.
type Bet struct {
	Address        common.Hash
	Creator        common.Address
	Title          string
	BetAmount      types.Amount
	TotalYesAmount types.Amount
	TotalNoAmount  types.Amount
	YesBettors     uint64
	NoBettors      uint64
	EndTime        int64 // unix seconds, inclusive staking deadline
	Resolved       bool
	Outcome        bool // meaningful only once Resolved; true = YES wins
	TokenMint      common.Address
	VaultAuthority common.Hash
	Vault          common.Hash
}

// TotalPool returns the combined stake across both sides.
func (b *Bet) TotalPool() (types.Amount, error) {
	return b.TotalYesAmount.CheckedAdd(b.TotalNoAmount)
}

// WinningPool returns the staked total on the winning side. Only meaningful
// once the bet is resolved.
func (b *Bet) WinningPool() types.Amount {
	if b.Outcome {
		return b.TotalYesAmount
	}

	return b.TotalNoAmount
}

// UserBet is one user's fixed-size wager on one side of one bet. At most one
// exists per (bet, user) pair; the derived address enforces that.
type UserBet struct {
	Address   common.Hash
	User      common.Address
	Bet       common.Hash
	Amount    types.Amount
	Direction bool // true = YES
	Claimed   bool // write-once true; gates payout replay
}

// TokenAccount holds a balance of one mint for one owner. Vault accounts are
// owned by the bet's derived vault authority; only the engine moves funds out
// of them.
type TokenAccount struct {
	Address common.Hash
	Mint    common.Address
	Owner   common.Hash
	Balance types.Amount
}
