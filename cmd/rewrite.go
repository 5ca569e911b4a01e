package cmd

import (
	"context"
	"fmt"
	"time"

	"backpack-manager/core/config"
	"backpack-manager/core/database"
	"backpack-manager/core/logger"
	"backpack-manager/core/worker"
	"backpack-manager/feature/backpack"
	"backpack-manager/feature/backpack/identity"
	"backpack-manager/feature/backpack/queries"
	"backpack-manager/feature/backpack/serializer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rewriteCmd migrates stored backpacks to the configured write format.
var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Re-encode stored backpacks to the current serialization format",
	Long: `Scans for backpack records whose stored format version differs from
the version this build writes, re-encodes them, and writes them back in
batches. Records that fail to decode are left untouched.

The pass is idempotent: a second run finds nothing to do.`,
	RunE: runRewrite,
}

func init() {
	RootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		grace := time.Duration(cfg.Database.CloseGraceSeconds) * time.Second
		if err := database.Close(db, grace); err != nil {
			l.Warn("Failed to close database cleanly", zap.Error(err))
		}
	}()

	dialect, err := queries.ForDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}
	stmts, err := queries.Build(dialect, cfg.Backpack.QueryOptions())
	if err != nil {
		return fmt.Errorf("failed to build statements: %w", err)
	}

	ser, err := serializer.New(cfg.Backpack.SerializerVersion)
	if err != nil {
		return fmt.Errorf("failed to configure serializer: %w", err)
	}

	resolver := identity.NewResolver(
		identity.Mode(cfg.Backpack.Identity.Mode),
		cfg.Backpack.Identity.UseSeparators,
		cfg.Backpack.Identity.CacheSize,
		time.Duration(cfg.Backpack.Identity.CacheTTLSeconds)*time.Second,
	)

	// The rewrite runs synchronously on this command; the pool and
	// dispatcher are only there to satisfy the gateway's async paths.
	pool := worker.NewPool(cfg.Worker, l)
	service := backpack.NewService(db, stmts, ser, resolver, pool,
		worker.SyncDispatcher{}, l, cfg.Backpack.MaxAgeDays)

	l.Info("Starting rewrite pass", zap.Int("target_version", ser.Used()))

	stats, err := service.Rewrite(ctx)
	if err != nil {
		l.Error("Rewrite pass aborted",
			zap.Int("rewritten", stats.Rewritten), zap.Error(err))
		return err
	}

	l.Info("Rewrite pass finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("rewritten", stats.Rewritten),
		zap.Int("skipped", stats.Skipped),
	)
	return nil
}
