package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store is the persistence interface the engine runs against. Each lifecycle
// operation executes inside a single ExecTx boundary; the read methods serve
// external clients (API scans) and take no part in fund movement.
type Store interface {
	// ExecTx runs fn inside one all-or-nothing transaction. If fn returns an
	// error, every write staged through the Tx is discarded and the error is
	// returned unchanged. Concurrent transactions touching the same Bet row
	// are serialized by the backend.
	ExecTx(ctx context.Context, fn func(tx Tx) error) error

	GetBet(ctx context.Context, addr common.Hash) (*Bet, error)
	ListBets(ctx context.Context) ([]*Bet, error)
	GetUserBet(ctx context.Context, addr common.Hash) (*UserBet, error)
	ListUserBetsByBet(ctx context.Context, bet common.Hash) ([]*UserBet, error)
	ListUserBetsByUser(ctx context.Context, user common.Address) ([]*UserBet, error)
	GetTokenAccount(ctx context.Context, addr common.Hash) (*TokenAccount, error)

	Close() error
}

// Tx is the write surface available inside a transaction. Get methods return
// ErrNotFound for absent records; Insert methods return ErrDuplicate when the
// derived address is already occupied.
type Tx interface {
	GetBet(ctx context.Context, addr common.Hash) (*Bet, error)
	InsertBet(ctx context.Context, bet *Bet) error
	UpdateBet(ctx context.Context, bet *Bet) error

	GetUserBet(ctx context.Context, addr common.Hash) (*UserBet, error)
	InsertUserBet(ctx context.Context, ub *UserBet) error
	UpdateUserBet(ctx context.Context, ub *UserBet) error

	GetTokenAccount(ctx context.Context, addr common.Hash) (*TokenAccount, error)
	InsertTokenAccount(ctx context.Context, acct *TokenAccount) error
	UpdateTokenAccount(ctx context.Context, acct *TokenAccount) error
}
