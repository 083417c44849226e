package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/internal/store"
	"github.com/openpool/betledger/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withEngine loads config, connects the configured store and hands an engine
// to fn. Admin commands operate the store directly rather than going through
// a running service.
func withEngine(fn func(ctx context.Context, engine *ledger.Engine) error) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	engine, err := ledger.New(&ledger.Config{Store: s, Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	return fn(ctx, engine)
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ledger.Store, error) {
	if cfg.StorageMode != "postgres" {
		return nil, fmt.Errorf("admin commands need STORAGE_MODE=postgres, got %q", cfg.StorageMode)
	}

	pg, err := store.NewPostgresStore(&store.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: %w", err)
	}

	err = pg.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return pg, nil
}

func identityFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s must be a hex identity, got %q", name, value)
	}

	return common.HexToAddress(value), nil
}
