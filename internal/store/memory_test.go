package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/internal/store"
	"github.com/openpool/betledger/internal/testutil"
	"github.com/openpool/betledger/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newBet(title string) *ledger.Bet {
	addr := ledger.DeriveBetAddress(title)

	return &ledger.Bet{
		Address:        addr,
		Creator:        testutil.Creator,
		Title:          title,
		BetAmount:      100,
		EndTime:        2_000_000,
		TokenMint:      testutil.Mint,
		VaultAuthority: ledger.DeriveVaultAuthority(addr),
		Vault:          ledger.DeriveVaultTokenAccount(addr),
	}
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))
	bet := newBet("insert-and-get")

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		return tx.InsertBet(ctx, bet)
	})
	require.NoError(t, err)

	got, err := memStore.GetBet(ctx, bet.Address)
	require.NoError(t, err)
	assert.Equal(t, bet, got)

	_, err = memStore.GetBet(ctx, ledger.DeriveBetAddress("missing"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMemoryStore_DuplicateInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))
	bet := newBet("dup")

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		return tx.InsertBet(ctx, bet)
	})
	require.NoError(t, err)

	// Against the committed base.
	err = memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		return tx.InsertBet(ctx, bet)
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)

	// Against a staged write in the same transaction.
	other := newBet("dup-staged")
	err = memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		if insertErr := tx.InsertBet(ctx, other); insertErr != nil {
			return insertErr
		}

		return tx.InsertBet(ctx, other)
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)

	// The failed transaction staged nothing.
	_, err = memStore.GetBet(ctx, other.Address)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))
	bet := newBet("rollback")
	boom := errors.New("boom")

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		if insertErr := tx.InsertBet(ctx, bet); insertErr != nil {
			return insertErr
		}
		if insertErr := tx.InsertTokenAccount(ctx, &ledger.TokenAccount{
			Address: bet.Vault,
			Mint:    bet.TokenMint,
			Owner:   bet.VaultAuthority,
		}); insertErr != nil {
			return insertErr
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = memStore.GetBet(ctx, bet.Address)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = memStore.GetTokenAccount(ctx, bet.Vault)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMemoryStore_ReadOwnWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))
	bet := newBet("read-own-writes")

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		if insertErr := tx.InsertBet(ctx, bet); insertErr != nil {
			return insertErr
		}

		staged, getErr := tx.GetBet(ctx, bet.Address)
		if getErr != nil {
			return getErr
		}
		staged.TotalYesAmount = 100
		staged.YesBettors = 1

		if updateErr := tx.UpdateBet(ctx, staged); updateErr != nil {
			return updateErr
		}

		// The second read must see the update, not the insert.
		again, getErr := tx.GetBet(ctx, bet.Address)
		if getErr != nil {
			return getErr
		}
		assert.Equal(t, types.Amount(100), again.TotalYesAmount)

		return nil
	})
	require.NoError(t, err)

	committed, err := memStore.GetBet(ctx, bet.Address)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(100), committed.TotalYesAmount)
	assert.Equal(t, uint64(1), committed.YesBettors)
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		return tx.UpdateBet(ctx, newBet("never-inserted"))
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	err = memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		return tx.UpdateTokenAccount(ctx, &ledger.TokenAccount{
			Address: ledger.DeriveTokenAccount(testutil.Mint, testutil.Alice),
		})
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMemoryStore_GetReturnsClones(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))
	bet := newBet("clones")

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		return tx.InsertBet(ctx, bet)
	})
	require.NoError(t, err)

	got, err := memStore.GetBet(ctx, bet.Address)
	require.NoError(t, err)
	got.Resolved = true

	again, err := memStore.GetBet(ctx, bet.Address)
	require.NoError(t, err)
	assert.False(t, again.Resolved)
}

func TestMemoryStore_ListBetsOrdered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))

	for _, title := range []string{"charlie", "alpha", "bravo"} {
		bet := newBet(title)
		err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
			return tx.InsertBet(ctx, bet)
		})
		require.NoError(t, err)
	}

	bets, err := memStore.ListBets(ctx)
	require.NoError(t, err)
	require.Len(t, bets, 3)
	assert.Equal(t, "alpha", bets[0].Title)
	assert.Equal(t, "bravo", bets[1].Title)
	assert.Equal(t, "charlie", bets[2].Title)
}

func TestMemoryStore_Close(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore(zaptest.NewLogger(t))
	assert.NoError(t, memStore.Close())
}

func TestMemoryStore_ListUserBets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memStore := store.NewMemoryStore(zaptest.NewLogger(t))

	betA := ledger.DeriveBetAddress("list-a")
	betB := ledger.DeriveBetAddress("list-b")
	positions := []*ledger.UserBet{
		{Address: ledger.DeriveUserBetAddress(betA, testutil.Alice), User: testutil.Alice, Bet: betA, Amount: 100, Direction: true},
		{Address: ledger.DeriveUserBetAddress(betA, testutil.Bob), User: testutil.Bob, Bet: betA, Amount: 100, Direction: false},
		{Address: ledger.DeriveUserBetAddress(betB, testutil.Alice), User: testutil.Alice, Bet: betB, Amount: 50, Direction: true},
	}

	err := memStore.ExecTx(ctx, func(tx ledger.Tx) error {
		for _, ub := range positions {
			if insertErr := tx.InsertUserBet(ctx, ub); insertErr != nil {
				return insertErr
			}
		}

		return nil
	})
	require.NoError(t, err)

	byBet, err := memStore.ListUserBetsByBet(ctx, betA)
	require.NoError(t, err)
	require.Len(t, byBet, 2)
	for _, ub := range byBet {
		assert.Equal(t, betA, ub.Bet)
	}

	byUser, err := memStore.ListUserBetsByUser(ctx, testutil.Alice)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	for _, ub := range byUser {
		assert.Equal(t, testutil.Alice, ub.User)
	}

	var unused common.Address
	none, err := memStore.ListUserBetsByUser(ctx, unused)
	require.NoError(t, err)
	assert.Empty(t, none)
}
