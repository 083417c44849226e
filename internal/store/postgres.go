package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/types"
	"go.uber.org/zap"
)

// PostgresStore implements ledger.Store on PostgreSQL. Every lifecycle
// operation runs in one BEGIN/COMMIT; GetBet inside a transaction takes a
// FOR UPDATE row lock, so concurrent stakes on the same bet serialize at the
// database. Derived addresses are primary keys, which makes creation
// insert-if-absent. Amounts are stored as NUMERIC(20,0) to cover the full
// unsigned 64-bit range.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{db: db, logger: cfg.Logger}, nil
}

// NewPostgresStoreWithDB wraps an existing database handle. Used by tests.
func NewPostgresStoreWithDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates the ledger schema if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bets (
			address TEXT PRIMARY KEY,
			creator TEXT NOT NULL,
			title TEXT NOT NULL UNIQUE,
			bet_amount NUMERIC(20,0) NOT NULL,
			total_yes_amount NUMERIC(20,0) NOT NULL,
			total_no_amount NUMERIC(20,0) NOT NULL,
			yes_bettors NUMERIC(20,0) NOT NULL,
			no_bettors NUMERIC(20,0) NOT NULL,
			end_time BIGINT NOT NULL,
			resolved BOOLEAN NOT NULL,
			outcome BOOLEAN NOT NULL,
			token_mint TEXT NOT NULL,
			vault_authority TEXT NOT NULL,
			vault TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_bets (
			address TEXT PRIMARY KEY,
			user_identity TEXT NOT NULL,
			bet TEXT NOT NULL REFERENCES bets(address),
			amount NUMERIC(20,0) NOT NULL,
			direction BOOLEAN NOT NULL,
			claimed BOOLEAN NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS user_bets_bet_idx ON user_bets(bet)`,
		`CREATE INDEX IF NOT EXISTS user_bets_user_idx ON user_bets(user_identity)`,
		`CREATE TABLE IF NOT EXISTS token_accounts (
			address TEXT PRIMARY KEY,
			mint TEXT NOT NULL,
			owner TEXT NOT NULL,
			balance NUMERIC(20,0) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS token_ledger (
			id TEXT PRIMARY KEY,
			account TEXT NOT NULL,
			balance NUMERIC(20,0) NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		_, err := p.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	p.logger.Info("postgres-schema-ready")

	return nil
}

// ExecTx runs fn inside one database transaction.
func (p *PostgresStore) ExecTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	err = fn(&pgTx{tx: dbTx})
	if err != nil {
		return err
	}

	err = dbTx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const betColumns = `address, creator, title, bet_amount, total_yes_amount, total_no_amount,
	yes_bettors, no_bettors, end_time, resolved, outcome, token_mint, vault_authority, vault`

// GetBet returns the bet at addr.
func (p *PostgresStore) GetBet(ctx context.Context, addr common.Hash) (*ledger.Bet, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE address = $1`, addr.Hex())

	return scanBet(row)
}

// ListBets returns all bets ordered by title.
func (p *PostgresStore) ListBets(ctx context.Context) ([]*ledger.Bet, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+betColumns+` FROM bets ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var bets []*ledger.Bet
	for rows.Next() {
		bet, scanErr := scanBet(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

const userBetColumns = `address, user_identity, bet, amount, direction, claimed`

// GetUserBet returns the user bet at addr.
func (p *PostgresStore) GetUserBet(ctx context.Context, addr common.Hash) (*ledger.UserBet, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+userBetColumns+` FROM user_bets WHERE address = $1`, addr.Hex())

	return scanUserBet(row)
}

// ListUserBetsByBet returns all user bets on one bet.
func (p *PostgresStore) ListUserBetsByBet(ctx context.Context, bet common.Hash) ([]*ledger.UserBet, error) {
	return p.listUserBets(ctx,
		`SELECT `+userBetColumns+` FROM user_bets WHERE bet = $1 ORDER BY address`, bet.Hex())
}

// ListUserBetsByUser returns all user bets placed by one user.
func (p *PostgresStore) ListUserBetsByUser(ctx context.Context, user common.Address) ([]*ledger.UserBet, error) {
	return p.listUserBets(ctx,
		`SELECT `+userBetColumns+` FROM user_bets WHERE user_identity = $1 ORDER BY address`, user.Hex())
}

func (p *PostgresStore) listUserBets(ctx context.Context, query string, arg any) ([]*ledger.UserBet, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query user bets: %w", err)
	}
	defer rows.Close()

	var userBets []*ledger.UserBet
	for rows.Next() {
		ub, scanErr := scanUserBet(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		userBets = append(userBets, ub)
	}

	return userBets, rows.Err()
}

// GetTokenAccount returns the token account at addr.
func (p *PostgresStore) GetTokenAccount(ctx context.Context, addr common.Hash) (*ledger.TokenAccount, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT address, mint, owner, balance FROM token_accounts WHERE address = $1`, addr.Hex())

	return scanTokenAccount(row)
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}

// pgTx implements ledger.Tx on a database transaction.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetBet(ctx context.Context, addr common.Hash) (*ledger.Bet, error) {
	// Row lock: concurrent operations on the same bet serialize here.
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE address = $1 FOR UPDATE`, addr.Hex())

	return scanBet(row)
}

func (t *pgTx) InsertBet(ctx context.Context, bet *ledger.Bet) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO bets (`+betColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		bet.Address.Hex(), bet.Creator.Hex(), bet.Title,
		amountString(bet.BetAmount), amountString(bet.TotalYesAmount), amountString(bet.TotalNoAmount),
		strconv.FormatUint(bet.YesBettors, 10), strconv.FormatUint(bet.NoBettors, 10),
		bet.EndTime, bet.Resolved, bet.Outcome,
		bet.TokenMint.Hex(), bet.VaultAuthority.Hex(), bet.Vault.Hex(),
	)

	return mapInsertErr(err, "insert bet")
}

func (t *pgTx) UpdateBet(ctx context.Context, bet *ledger.Bet) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bets SET total_yes_amount = $2, total_no_amount = $3,
		 yes_bettors = $4, no_bettors = $5, resolved = $6, outcome = $7
		 WHERE address = $1`,
		bet.Address.Hex(),
		amountString(bet.TotalYesAmount), amountString(bet.TotalNoAmount),
		strconv.FormatUint(bet.YesBettors, 10), strconv.FormatUint(bet.NoBettors, 10),
		bet.Resolved, bet.Outcome,
	)

	return mapUpdateErr(res, err, "update bet")
}

func (t *pgTx) GetUserBet(ctx context.Context, addr common.Hash) (*ledger.UserBet, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+userBetColumns+` FROM user_bets WHERE address = $1 FOR UPDATE`, addr.Hex())

	return scanUserBet(row)
}

func (t *pgTx) InsertUserBet(ctx context.Context, ub *ledger.UserBet) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO user_bets (`+userBetColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		ub.Address.Hex(), ub.User.Hex(), ub.Bet.Hex(),
		amountString(ub.Amount), ub.Direction, ub.Claimed,
	)

	return mapInsertErr(err, "insert user bet")
}

func (t *pgTx) UpdateUserBet(ctx context.Context, ub *ledger.UserBet) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE user_bets SET claimed = $2 WHERE address = $1`,
		ub.Address.Hex(), ub.Claimed,
	)

	return mapUpdateErr(res, err, "update user bet")
}

func (t *pgTx) GetTokenAccount(ctx context.Context, addr common.Hash) (*ledger.TokenAccount, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT address, mint, owner, balance FROM token_accounts WHERE address = $1 FOR UPDATE`, addr.Hex())

	return scanTokenAccount(row)
}

func (t *pgTx) InsertTokenAccount(ctx context.Context, acct *ledger.TokenAccount) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO token_accounts (address, mint, owner, balance) VALUES ($1, $2, $3, $4)`,
		acct.Address.Hex(), acct.Mint.Hex(), acct.Owner.Hex(), amountString(acct.Balance),
	)

	return mapInsertErr(err, "insert token account")
}

func (t *pgTx) UpdateTokenAccount(ctx context.Context, acct *ledger.TokenAccount) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE token_accounts SET balance = $2 WHERE address = $1`,
		acct.Address.Hex(), amountString(acct.Balance),
	)
	err = mapUpdateErr(res, err, "update token account")
	if err != nil {
		return err
	}

	// Balance journal for audit and reconciliation.
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO token_ledger (id, account, balance) VALUES ($1, $2, $3)`,
		uuid.New().String(), acct.Address.Hex(), amountString(acct.Balance),
	)
	if err != nil {
		return fmt.Errorf("journal balance: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (*ledger.Bet, error) {
	var (
		bet                                      ledger.Bet
		address, creator, mint, authority, vault string
		betAmount, yesAmount, noAmount           string
		yesBettors, noBettors                    string
	)

	err := row.Scan(&address, &creator, &bet.Title, &betAmount, &yesAmount, &noAmount,
		&yesBettors, &noBettors, &bet.EndTime, &bet.Resolved, &bet.Outcome,
		&mint, &authority, &vault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan bet: %w", err)
	}

	bet.Address = common.HexToHash(address)
	bet.Creator = common.HexToAddress(creator)
	bet.TokenMint = common.HexToAddress(mint)
	bet.VaultAuthority = common.HexToHash(authority)
	bet.Vault = common.HexToHash(vault)

	bet.BetAmount, err = parseAmount(betAmount)
	if err == nil {
		bet.TotalYesAmount, err = parseAmount(yesAmount)
	}
	if err == nil {
		bet.TotalNoAmount, err = parseAmount(noAmount)
	}
	if err == nil {
		bet.YesBettors, err = strconv.ParseUint(yesBettors, 10, 64)
	}
	if err == nil {
		bet.NoBettors, err = strconv.ParseUint(noBettors, 10, 64)
	}
	if err != nil {
		return nil, fmt.Errorf("scan bet: %w", err)
	}

	return &bet, nil
}

func scanUserBet(row rowScanner) (*ledger.UserBet, error) {
	var (
		ub                     ledger.UserBet
		address, user, betAddr string
		amount                 string
	)

	err := row.Scan(&address, &user, &betAddr, &amount, &ub.Direction, &ub.Claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user bet: %w", err)
	}

	ub.Address = common.HexToHash(address)
	ub.User = common.HexToAddress(user)
	ub.Bet = common.HexToHash(betAddr)

	ub.Amount, err = parseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("scan user bet: %w", err)
	}

	return &ub, nil
}

func scanTokenAccount(row rowScanner) (*ledger.TokenAccount, error) {
	var (
		acct                 ledger.TokenAccount
		address, mint, owner string
		balance              string
	)

	err := row.Scan(&address, &mint, &owner, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan token account: %w", err)
	}

	acct.Address = common.HexToHash(address)
	acct.Mint = common.HexToAddress(mint)
	acct.Owner = common.HexToHash(owner)

	acct.Balance, err = parseAmount(balance)
	if err != nil {
		return nil, fmt.Errorf("scan token account: %w", err)
	}

	return &acct, nil
}

func amountString(a types.Amount) string {
	return strconv.FormatUint(uint64(a), 10)
}

func parseAmount(s string) (types.Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	return types.Amount(v), nil
}

func mapInsertErr(err error, op string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ledger.ErrDuplicate
	}

	return fmt.Errorf("%s: %w", op, err)
}

func mapUpdateErr(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}
