package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backpack-manager/core/config"
	"backpack-manager/core/database"
	"backpack-manager/core/loader"
	"backpack-manager/core/logger"
	"backpack-manager/core/middleware/auth"
	"backpack-manager/core/middleware/rayid"
	"backpack-manager/core/worker"
	"backpack-manager/feature/backpack"
	"backpack-manager/feature/backpack/identity"
	"backpack-manager/feature/backpack/queries"
	"backpack-manager/feature/backpack/serializer"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the backpack gateway",
	Long: `Starts the persistence gateway: connects the pool, verifies the
schema, runs the startup maintenance passes and serves the admin API.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect the pooled database source
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database connection failed", zap.Error(err))
		}
		logg = logg.With(zap.String("driver", cfg.Database.Driver))
		logg.Info("Connected to database")

		// 4. Build the dialect-specific statement set
		dialect, err := queries.ForDriver(cfg.Database.Driver)
		if err != nil {
			logg.Fatal("Failed to select query dialect", zap.Error(err))
		}
		stmts, err := queries.Build(dialect, cfg.Backpack.QueryOptions())
		if err != nil {
			logg.Fatal("Failed to build statements", zap.Error(err))
		}

		ser, err := serializer.New(cfg.Backpack.SerializerVersion)
		if err != nil {
			logg.Fatal("Failed to configure serializer", zap.Error(err))
		}

		resolver := identity.NewResolver(
			identity.Mode(cfg.Backpack.Identity.Mode),
			cfg.Backpack.Identity.UseSeparators,
			cfg.Backpack.Identity.CacheSize,
			time.Duration(cfg.Backpack.Identity.CacheTTLSeconds)*time.Second,
		)

		pool := worker.NewPool(cfg.Worker, logg)
		service := backpack.NewService(db, stmts, ser, resolver, pool,
			worker.SyncDispatcher{}, logg, cfg.Backpack.MaxAgeDays)

		ctx := context.Background()

		// 5. Verify / create the schema
		if err := service.EnsureSchema(ctx, cfg.Backpack); err != nil {
			logg.Fatal("Schema check failed", zap.Error(err))
		}

		// 6. Reconcile unique ids (uuid mode + refresh only).
		// Failures are logged, never fatal: unresolved rows wait for the
		// next startup.
		if resolver.UseUUIDs() && cfg.Backpack.Identity.RefreshOnStartup {
			lookup := identity.NewHTTPLookup(cfg.Backpack.Identity.LookupURL,
				time.Duration(cfg.Backpack.Identity.LookupTimeoutSeconds)*time.Second)
			reconciler := identity.NewReconciler(db, stmts, resolver, lookup, logg)
			if _, err := reconciler.Run(ctx); err != nil {
				logg.Warn("Unique-id reconciliation incomplete", zap.Error(err))
			}
		}

		// 7. Purge old backpacks. Runs after reconciliation, matching the
		// historical order; a backpack whose identity was backfilled just
		// now is still judged purely on its last-update age.
		if cfg.Backpack.MaxAgeDays > 0 {
			if resolver.UseUUIDs() && cfg.Backpack.Identity.RefreshOnStartup {
				logg.Warn("Purge runs in the same startup as identity reconciliation; freshly reconciled owners are not exempted")
			}
			removed, err := service.Purge(ctx)
			if err != nil {
				logg.Warn("Purge failed", zap.Error(err))
			} else if removed > 0 {
				logg.Info("Purged old backpacks", zap.Int64("removed", removed))
			}
		}

		// 8. Start the worker pool
		pool.Start()

		// 9. Admin HTTP surface
		var app *fiber.App
		if cfg.Server.Enabled {
			app = fiber.New(fiber.Config{
				DisableStartupMessage: true, // We log our own startup message
			})

			app.Use(rayid.New())
			app.Use(func(c *fiber.Ctx) error {
				l := logger.WithRayID(logg, c)
				l.Info("Request started",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.String("ip", c.IP()),
				)
				err := c.Next()
				if err != nil {
					l.Error("Request error", zap.Error(err))
				}
				return err
			})
			app.Get("/health", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"status":  "ok",
					"version": ser.Used(),
				})
			})
			app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

			mgr := loader.NewManager()
			mgr.Register(backpack.NewFeature(service, logg, cfg.Server.Enabled))
			if err := mgr.LoadAll(app); err != nil {
				logg.Fatal("Failed to load features", zap.Error(err))
			}

			go func() {
				logg.Info("Starting admin server", zap.String("port", cfg.Server.Port))
				if err := app.Listen(":" + cfg.Server.Port); err != nil {
					logg.Fatal("Server failed to start", zap.Error(err))
				}
			}()
		}

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		if app != nil {
			_ = app.Shutdown()
		}
		pool.Stop()
		grace := time.Duration(cfg.Database.CloseGraceSeconds) * time.Second
		if err := database.Close(db, grace); err != nil {
			logg.Warn("Failed to close database cleanly", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
