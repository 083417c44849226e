package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/openpool/betledger/pkg/types"
	"go.uber.org/zap"
)

// Engine is the lifecycle orchestrator. It owns the four public transitions
// (create, stake, resolve, claim) plus minting, validates every precondition
// against authoritative records, and is the only code path that moves funds
// in or out of a vault. Callers are untrusted; nothing they supply beyond
// identities and operation arguments is believed.
type Engine struct {
	store     Store
	clock     Clock
	logger    *zap.Logger
	publisher Publisher
}

// Config holds engine configuration.
type Config struct {
	Store     Store
	Clock     Clock     // defaults to SystemClock
	Publisher Publisher // optional lifecycle event sink
	Logger    *zap.Logger
}

// New creates a new engine.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Engine{
		store:     cfg.Store,
		clock:     clock,
		logger:    cfg.Logger,
		publisher: cfg.Publisher,
	}, nil
}

// Store exposes the engine's record store for read-only scans.
func (e *Engine) Store() Store {
	return e.store
}

// CreateBet allocates a new bet at the address derived from its title, along
// with the bet's vault custody account. No funds move.
func (e *Engine) CreateBet(ctx context.Context, creator common.Address, title string, betAmount types.Amount, endTime int64, tokenMint common.Address) (bet *Bet, err error) {
	defer func() { observeOperation("create", err) }()

	if title == "" {
		return nil, types.NewBetError(types.CodeInvalidTitle, "title cannot be empty")
	}
	if betAmount == 0 {
		return nil, types.NewBetError(types.CodeInvalidAmount, "bet amount must be positive")
	}

	now := e.clock.Now().Unix()
	if endTime <= now {
		return nil, types.NewBetErrorf(types.CodeInvalidEndTime, "end time %d is not after current time %d", endTime, now)
	}

	addr := DeriveBetAddress(title)
	bet = &Bet{
		Address:        addr,
		Creator:        creator,
		Title:          title,
		BetAmount:      betAmount,
		EndTime:        endTime,
		TokenMint:      tokenMint,
		VaultAuthority: DeriveVaultAuthority(addr),
		Vault:          DeriveVaultTokenAccount(addr),
	}

	err = e.store.ExecTx(ctx, func(tx Tx) error {
		txErr := tx.InsertBet(ctx, bet)
		if errors.Is(txErr, ErrDuplicate) {
			return types.NewBetErrorf(types.CodeDuplicateBet, "bet %q already exists", title)
		}
		if txErr != nil {
			return fmt.Errorf("insert bet: %w", txErr)
		}

		txErr = tx.InsertTokenAccount(ctx, &TokenAccount{
			Address: bet.Vault,
			Mint:    tokenMint,
			Owner:   bet.VaultAuthority,
			Balance: 0,
		})
		if txErr != nil {
			return fmt.Errorf("insert vault account: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("bet-created",
		zap.String("bet", addr.Hex()),
		zap.String("creator", creator.Hex()),
		zap.String("title", title),
		zap.Uint64("bet-amount", uint64(betAmount)),
		zap.Int64("end-time", endTime))

	e.publish(Event{Type: EventBetCreated, Bet: addr, Title: title, User: creator, Amount: betAmount})

	return bet, nil
}

// Stake transfers exactly the bet's fixed stake from the bettor into the
// vault and records the bettor's position. The record insert, counter updates
// and fund transfer commit as one unit or not at all.
func (e *Engine) Stake(ctx context.Context, bettor common.Address, betAddr common.Hash, direction bool) (ub *UserBet, err error) {
	defer func() { observeOperation("stake", err) }()

	now := e.clock.Now().Unix()

	err = e.store.ExecTx(ctx, func(tx Tx) error {
		bet, txErr := e.loadBet(ctx, tx, betAddr)
		if txErr != nil {
			return txErr
		}

		if bet.Resolved {
			return types.NewBetError(types.CodeBetAlreadyResolved, "bet is already resolved")
		}
		if now > bet.EndTime {
			return types.NewBetErrorf(types.CodeBetEndTimeExceeded, "staking closed at %d, now %d", bet.EndTime, now)
		}
		if DeriveVaultTokenAccount(bet.Address) != bet.Vault {
			return types.NewBetError(types.CodeVaultMismatch, "vault does not match derivation")
		}

		ub = &UserBet{
			Address:   DeriveUserBetAddress(bet.Address, bettor),
			User:      bettor,
			Bet:       bet.Address,
			Amount:    bet.BetAmount,
			Direction: direction,
		}

		txErr = tx.InsertUserBet(ctx, ub)
		if errors.Is(txErr, ErrDuplicate) {
			return types.NewBetErrorf(types.CodeDuplicateStake, "user %s already staked on this bet", bettor.Hex())
		}
		if txErr != nil {
			return fmt.Errorf("insert user bet: %w", txErr)
		}

		if direction {
			bet.TotalYesAmount, txErr = bet.TotalYesAmount.CheckedAdd(bet.BetAmount)
			bet.YesBettors++
		} else {
			bet.TotalNoAmount, txErr = bet.TotalNoAmount.CheckedAdd(bet.BetAmount)
			bet.NoBettors++
		}
		if txErr != nil {
			return txErr
		}

		txErr = e.transfer(ctx, tx, DeriveTokenAccount(bet.TokenMint, bettor), bet.Vault, bet.BetAmount)
		if txErr != nil {
			return txErr
		}

		txErr = tx.UpdateBet(ctx, bet)
		if txErr != nil {
			return fmt.Errorf("update bet: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("stake-placed",
		zap.String("bet", betAddr.Hex()),
		zap.String("bettor", bettor.Hex()),
		zap.Bool("direction", direction),
		zap.Uint64("amount", uint64(ub.Amount)))

	StakedAmount.Observe(float64(ub.Amount))
	e.publish(Event{Type: EventStaked, Bet: betAddr, User: bettor, Amount: ub.Amount, Direction: ub.Direction})

	return ub, nil
}

// Resolve fixes the bet's outcome. Only the creator may resolve, only after
// the deadline, and only once; the outcome never changes afterwards. No funds
// move.
func (e *Engine) Resolve(ctx context.Context, actor common.Address, betAddr common.Hash, outcome bool) (bet *Bet, err error) {
	defer func() { observeOperation("resolve", err) }()

	now := e.clock.Now().Unix()

	err = e.store.ExecTx(ctx, func(tx Tx) error {
		var txErr error
		bet, txErr = e.loadBet(ctx, tx, betAddr)
		if txErr != nil {
			return txErr
		}

		if actor != bet.Creator {
			return types.NewBetError(types.CodeUnauthorized, "only the bet creator may resolve")
		}
		if bet.Resolved {
			return types.NewBetError(types.CodeBetAlreadyResolved, "bet is already resolved")
		}
		if now < bet.EndTime {
			return types.NewBetErrorf(types.CodeBetNotEnded, "bet ends at %d, now %d", bet.EndTime, now)
		}

		bet.Resolved = true
		bet.Outcome = outcome

		txErr = tx.UpdateBet(ctx, bet)
		if txErr != nil {
			return fmt.Errorf("update bet: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("bet-resolved",
		zap.String("bet", betAddr.Hex()),
		zap.String("resolver", actor.Hex()),
		zap.Bool("outcome", outcome))

	e.publish(Event{Type: EventResolved, Bet: betAddr, User: actor, Outcome: outcome})

	return bet, nil
}

// Claim pays a winner their pro-rata share of the entire pool:
// floor(totalPool * stake / winningPool), computed with a 128-bit
// intermediate. The vault transfer and the claimed flag commit as one unit,
// so a claim can neither be replayed nor lose funds between the two.
func (e *Engine) Claim(ctx context.Context, user common.Address, betAddr common.Hash) (payout types.Amount, err error) {
	defer func() { observeOperation("claim", err) }()

	err = e.store.ExecTx(ctx, func(tx Tx) error {
		bet, txErr := e.loadBet(ctx, tx, betAddr)
		if txErr != nil {
			return txErr
		}

		if !bet.Resolved {
			return types.NewBetError(types.CodeBetNotResolved, "bet is not resolved")
		}

		ub, txErr := tx.GetUserBet(ctx, DeriveUserBetAddress(bet.Address, user))
		if errors.Is(txErr, ErrNotFound) {
			return types.NewBetErrorf(types.CodeAccountNotInitialized, "user %s never staked on this bet", user.Hex())
		}
		if txErr != nil {
			return fmt.Errorf("get user bet: %w", txErr)
		}

		if ub.Direction != bet.Outcome {
			return types.NewBetError(types.CodeNotWinner, "losing side has no claim")
		}
		if ub.Claimed {
			return types.NewBetError(types.CodeAlreadyClaimed, "winnings already claimed")
		}
		if DeriveVaultTokenAccount(bet.Address) != bet.Vault {
			return types.NewBetError(types.CodeVaultMismatch, "vault does not match derivation")
		}

		vault, txErr := tx.GetTokenAccount(ctx, bet.Vault)
		if errors.Is(txErr, ErrNotFound) {
			return types.NewBetError(types.CodeVaultMismatch, "vault account missing")
		}
		if txErr != nil {
			return fmt.Errorf("get vault account: %w", txErr)
		}
		if vault.Owner != DeriveVaultAuthority(bet.Address) {
			return types.NewBetError(types.CodeVaultMismatch, "vault authority does not match derivation")
		}

		winningPool := bet.WinningPool()
		if winningPool == 0 {
			return types.NewBetError(types.CodeNoWinningPool, "winning side holds no stake")
		}

		totalPool, txErr := bet.TotalPool()
		if txErr != nil {
			return txErr
		}

		payout, txErr = types.MulDiv(totalPool, ub.Amount, winningPool)
		if txErr != nil {
			return txErr
		}

		txErr = e.transfer(ctx, tx, bet.Vault, DeriveTokenAccount(bet.TokenMint, user), payout)
		if txErr != nil {
			return txErr
		}

		ub.Claimed = true

		txErr = tx.UpdateUserBet(ctx, ub)
		if txErr != nil {
			return fmt.Errorf("update user bet: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("winnings-claimed",
		zap.String("bet", betAddr.Hex()),
		zap.String("user", user.Hex()),
		zap.Uint64("payout", uint64(payout)))

	PayoutAmount.Observe(float64(payout))
	e.publish(Event{Type: EventClaimed, Bet: betAddr, User: user, Amount: payout})

	return payout, nil
}

// MintTo credits freshly minted tokens to a recipient's token account,
// creating the account if needed. Only the mint authority (the mint identity
// itself) may mint.
func (e *Engine) MintTo(ctx context.Context, actor common.Address, mint common.Address, to common.Address, amount types.Amount) (balance types.Amount, err error) {
	defer func() { observeOperation("mint", err) }()

	if actor != mint {
		return 0, types.NewBetError(types.CodeUnauthorized, "only the mint authority may mint")
	}
	if amount == 0 {
		return 0, types.NewBetError(types.CodeInvalidAmount, "mint amount must be positive")
	}

	err = e.store.ExecTx(ctx, func(tx Tx) error {
		addr := DeriveTokenAccount(mint, to)

		acct, txErr := tx.GetTokenAccount(ctx, addr)
		if errors.Is(txErr, ErrNotFound) {
			acct = &TokenAccount{Address: addr, Mint: mint, Owner: IdentityKey(to)}
			txErr = tx.InsertTokenAccount(ctx, acct)
			if txErr != nil {
				return fmt.Errorf("insert token account: %w", txErr)
			}
		} else if txErr != nil {
			return fmt.Errorf("get token account: %w", txErr)
		}

		acct.Balance, txErr = acct.Balance.CheckedAdd(amount)
		if txErr != nil {
			return txErr
		}
		balance = acct.Balance

		txErr = tx.UpdateTokenAccount(ctx, acct)
		if txErr != nil {
			return fmt.Errorf("update token account: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("tokens-minted",
		zap.String("mint", mint.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("amount", uint64(amount)))

	return balance, nil
}

// loadBet fetches a bet inside a transaction, mapping absence to the
// client-facing code.
func (e *Engine) loadBet(ctx context.Context, tx Tx, addr common.Hash) (*Bet, error) {
	bet, err := tx.GetBet(ctx, addr)
	if errors.Is(err, ErrNotFound) {
		return nil, types.NewBetErrorf(types.CodeAccountNotInitialized, "bet %s does not exist", addr.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get bet: %w", err)
	}

	return bet, nil
}

// transfer moves amount between two token accounts inside a transaction.
// Both legs use checked arithmetic; either both balances change or neither.
func (e *Engine) transfer(ctx context.Context, tx Tx, from, to common.Hash, amount types.Amount) error {
	src, err := tx.GetTokenAccount(ctx, from)
	if errors.Is(err, ErrNotFound) {
		return types.NewBetError(types.CodeAccountNotInitialized, "source token account does not exist")
	}
	if err != nil {
		return fmt.Errorf("get source account: %w", err)
	}

	dst, err := tx.GetTokenAccount(ctx, to)
	if errors.Is(err, ErrNotFound) {
		return types.NewBetError(types.CodeAccountNotInitialized, "destination token account does not exist")
	}
	if err != nil {
		return fmt.Errorf("get destination account: %w", err)
	}

	if src.Balance < amount {
		return types.NewBetErrorf(types.CodeInsufficientFunds, "balance %d is below %d", src.Balance, amount)
	}

	src.Balance, err = src.Balance.CheckedSub(amount)
	if err != nil {
		return err
	}

	dst.Balance, err = dst.Balance.CheckedAdd(amount)
	if err != nil {
		return err
	}

	err = tx.UpdateTokenAccount(ctx, src)
	if err != nil {
		return fmt.Errorf("update source account: %w", err)
	}

	err = tx.UpdateTokenAccount(ctx, dst)
	if err != nil {
		return fmt.Errorf("update destination account: %w", err)
	}

	return nil
}

func (e *Engine) publish(event Event) {
	if e.publisher != nil {
		e.publisher.Publish(event)
	}
}
