package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/openpool/betledger/internal/ledger"
	"go.uber.org/zap"
)

// MemoryStore is an in-process ledger.Store backed by maps. A single mutex
// serializes transactions, which gives every lifecycle operation the
// write-write serialization the engine assumes. Writes are staged per
// transaction and only reach the base maps on commit, so a failed operation
// leaves no trace. Serves tests and STORAGE_MODE=memory.
type MemoryStore struct {
	mu            sync.Mutex
	bets          map[common.Hash]*ledger.Bet
	userBets      map[common.Hash]*ledger.UserBet
	tokenAccounts map[common.Hash]*ledger.TokenAccount
	logger        *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		bets:          make(map[common.Hash]*ledger.Bet),
		userBets:      make(map[common.Hash]*ledger.UserBet),
		tokenAccounts: make(map[common.Hash]*ledger.TokenAccount),
		logger:        logger,
	}
}

// ExecTx runs fn under the store mutex with staged writes. Any error from fn
// discards the staging maps untouched.
func (m *MemoryStore) ExecTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		store:         m,
		bets:          make(map[common.Hash]*ledger.Bet),
		userBets:      make(map[common.Hash]*ledger.UserBet),
		tokenAccounts: make(map[common.Hash]*ledger.TokenAccount),
	}

	err := fn(tx)
	if err != nil {
		return err
	}

	tx.commit()

	return nil
}

// GetBet returns the bet at addr.
func (m *MemoryStore) GetBet(ctx context.Context, addr common.Hash) (*ledger.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bet, ok := m.bets[addr]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneBet(bet), nil
}

// ListBets returns all bets ordered by title.
func (m *MemoryStore) ListBets(ctx context.Context) ([]*ledger.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bets := make([]*ledger.Bet, 0, len(m.bets))
	for _, bet := range m.bets {
		bets = append(bets, cloneBet(bet))
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].Title < bets[j].Title })

	return bets, nil
}

// GetUserBet returns the user bet at addr.
func (m *MemoryStore) GetUserBet(ctx context.Context, addr common.Hash) (*ledger.UserBet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ub, ok := m.userBets[addr]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneUserBet(ub), nil
}

// ListUserBetsByBet returns all user bets on one bet.
func (m *MemoryStore) ListUserBetsByBet(ctx context.Context, bet common.Hash) ([]*ledger.UserBet, error) {
	return m.listUserBets(func(ub *ledger.UserBet) bool { return ub.Bet == bet })
}

// ListUserBetsByUser returns all user bets placed by one user.
func (m *MemoryStore) ListUserBetsByUser(ctx context.Context, user common.Address) ([]*ledger.UserBet, error) {
	return m.listUserBets(func(ub *ledger.UserBet) bool { return ub.User == user })
}

func (m *MemoryStore) listUserBets(match func(*ledger.UserBet) bool) ([]*ledger.UserBet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*ledger.UserBet
	for _, ub := range m.userBets {
		if match(ub) {
			out = append(out, cloneUserBet(ub))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Hex() < out[j].Address.Hex()
	})

	return out, nil
}

// GetTokenAccount returns the token account at addr.
func (m *MemoryStore) GetTokenAccount(ctx context.Context, addr common.Hash) (*ledger.TokenAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.tokenAccounts[addr]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneTokenAccount(acct), nil
}

// Close releases nothing; logged for parity with the postgres store.
func (m *MemoryStore) Close() error {
	m.logger.Info("closing-memory-store")
	return nil
}

// memTx stages writes against the base maps. Gets prefer staged copies so a
// transaction reads its own writes.
type memTx struct {
	store         *MemoryStore
	bets          map[common.Hash]*ledger.Bet
	userBets      map[common.Hash]*ledger.UserBet
	tokenAccounts map[common.Hash]*ledger.TokenAccount
}

func (t *memTx) commit() {
	for addr, bet := range t.bets {
		t.store.bets[addr] = bet
	}
	for addr, ub := range t.userBets {
		t.store.userBets[addr] = ub
	}
	for addr, acct := range t.tokenAccounts {
		t.store.tokenAccounts[addr] = acct
	}
}

func (t *memTx) GetBet(ctx context.Context, addr common.Hash) (*ledger.Bet, error) {
	if bet, ok := t.bets[addr]; ok {
		return cloneBet(bet), nil
	}
	if bet, ok := t.store.bets[addr]; ok {
		return cloneBet(bet), nil
	}

	return nil, ledger.ErrNotFound
}

func (t *memTx) InsertBet(ctx context.Context, bet *ledger.Bet) error {
	if _, ok := t.bets[bet.Address]; ok {
		return ledger.ErrDuplicate
	}
	if _, ok := t.store.bets[bet.Address]; ok {
		return ledger.ErrDuplicate
	}
	t.bets[bet.Address] = cloneBet(bet)

	return nil
}

func (t *memTx) UpdateBet(ctx context.Context, bet *ledger.Bet) error {
	if _, ok := t.bets[bet.Address]; !ok {
		if _, ok := t.store.bets[bet.Address]; !ok {
			return ledger.ErrNotFound
		}
	}
	t.bets[bet.Address] = cloneBet(bet)

	return nil
}

func (t *memTx) GetUserBet(ctx context.Context, addr common.Hash) (*ledger.UserBet, error) {
	if ub, ok := t.userBets[addr]; ok {
		return cloneUserBet(ub), nil
	}
	if ub, ok := t.store.userBets[addr]; ok {
		return cloneUserBet(ub), nil
	}

	return nil, ledger.ErrNotFound
}

func (t *memTx) InsertUserBet(ctx context.Context, ub *ledger.UserBet) error {
	if _, ok := t.userBets[ub.Address]; ok {
		return ledger.ErrDuplicate
	}
	if _, ok := t.store.userBets[ub.Address]; ok {
		return ledger.ErrDuplicate
	}
	t.userBets[ub.Address] = cloneUserBet(ub)

	return nil
}

func (t *memTx) UpdateUserBet(ctx context.Context, ub *ledger.UserBet) error {
	if _, ok := t.userBets[ub.Address]; !ok {
		if _, ok := t.store.userBets[ub.Address]; !ok {
			return ledger.ErrNotFound
		}
	}
	t.userBets[ub.Address] = cloneUserBet(ub)

	return nil
}

func (t *memTx) GetTokenAccount(ctx context.Context, addr common.Hash) (*ledger.TokenAccount, error) {
	if acct, ok := t.tokenAccounts[addr]; ok {
		return cloneTokenAccount(acct), nil
	}
	if acct, ok := t.store.tokenAccounts[addr]; ok {
		return cloneTokenAccount(acct), nil
	}

	return nil, ledger.ErrNotFound
}

func (t *memTx) InsertTokenAccount(ctx context.Context, acct *ledger.TokenAccount) error {
	if _, ok := t.tokenAccounts[acct.Address]; ok {
		return ledger.ErrDuplicate
	}
	if _, ok := t.store.tokenAccounts[acct.Address]; ok {
		return ledger.ErrDuplicate
	}
	t.tokenAccounts[acct.Address] = cloneTokenAccount(acct)

	return nil
}

func (t *memTx) UpdateTokenAccount(ctx context.Context, acct *ledger.TokenAccount) error {
	if _, ok := t.tokenAccounts[acct.Address]; !ok {
		if _, ok := t.store.tokenAccounts[acct.Address]; !ok {
			return ledger.ErrNotFound
		}
	}
	t.tokenAccounts[acct.Address] = cloneTokenAccount(acct)

	return nil
}

func cloneBet(bet *ledger.Bet) *ledger.Bet {
	clone := *bet
	return &clone
}

func cloneUserBet(ub *ledger.UserBet) *ledger.UserBet {
	clone := *ub
	return &clone
}

func cloneTokenAccount(acct *ledger.TokenAccount) *ledger.TokenAccount {
	clone := *acct
	return &clone
}
