package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sg2pl/core/config"
	"sg2pl/core/loader"
	"sg2pl/core/logger"
	"sg2pl/core/middleware/auth"
	"sg2pl/core/middleware/rayid"
	"sg2pl/feature/ops"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// daemonCmd runs the periodic sync loop plus the ops HTTP server.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic sync with an operational HTTP API",
	Long: `Daemon mode syncs all registered mappings immediately and then on a
fixed interval (sync.interval, default 5m). A tick that fires while the
previous batch is still running is skipped, never queued.

The HTTP API exposes /healthz, /status, /reports and POST /sync. All
endpoints except /healthz honor the server.api_key setting.`,
	RunE: runDaemon,
}

func init() {
	RootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Sync = cfg.Sync.Normalize()

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	stack, err := buildSyncStack(cfg, logg, nil)
	if err != nil {
		return err
	}

	var lister ops.ReportLister
	if stack.archive != nil {
		lister = stack.archive
	}
	svc := ops.NewService(stack.scheduler, lister, logg)

	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true, // We will log our own startup message
	})

	// Initialize Feature Loader
	mgr := loader.NewManager()
	mgr.Register(ops.NewFeature(svc))

	// Middleware Registration
	// 1. RayID (Must be first to trace everything)
	app.Use(rayid.New())

	// 2. Logging Middleware (Custom to use Zap + RayID)
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

	// 3. Auth (Protect API; liveness stays open)
	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Exempt: []string{"/healthz"}}))

	// Load Features
	if err := mgr.LoadAll(app); err != nil {
		logg.Fatal("Failed to load features", zap.Error(err))
	}

	// Start Server
	go func() {
		logg.Info("Starting ops server", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logg.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Sync loop: immediate first batch, then one per interval.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		tick := func() {
			if _, err := svc.Run(ctx, false); err != nil {
				switch {
				case errors.Is(err, ops.ErrBatchRunning):
					logg.Warn("Previous batch still running, skipping tick")
				case errors.Is(err, context.Canceled):
					// shutting down
				default:
					logg.Error("Sync batch failed", zap.Error(err))
				}
			}
		}
		tick()
		ticker := time.NewTicker(cfg.Sync.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()

	logg.Info("Sync loop started", zap.Duration("interval", cfg.Sync.Interval))

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logg.Info("Shutting down...")
	cancel()
	_ = app.Shutdown()
	return nil
}
