package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marathon_backend/internals/configs"
	database "marathon_backend/internals/databases"
	paymentService "marathon_backend/internals/features/finance/payments/service"
	scheduler "marathon_backend/internals/features/users/auth/scheduler"
	helper "marathon_backend/internals/helpers"
	middlewares "marathon_backend/internals/middlewares"
	routes "marathon_backend/internals/route"
)

var Version = "dev"

func main() {
	configs.LoadEnv()

	rootCmd := &cobra.Command{
		Use:           "marathon",
		Short:         "Marathon registration backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(exportSheetsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// boot opens the shared resources every command needs.
func boot() (configs.AppConfig, *zap.Logger, *gorm.DB, error) {
	cfg := configs.Load()
	log, err := configs.InitLogger(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		return cfg, log, nil, err
	}
	database.TunePool(db, log)
	return cfg, log, db, nil
}

func container(ctx context.Context) (*routes.Container, func(), error) {
	cfg, log, db, err := boot()
	if err != nil {
		return nil, func() {}, err
	}
	rdb, err := database.ConnectRedis(cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		rdb = nil
	}
	k, err := routes.NewContainer(ctx, cfg, db, rdb, log)
	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		database.Close(db)
		_ = log.Sync()
	}
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return k, cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k, cleanup, err := container(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	log := k.Log

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          helper.ErrorHandler(log),
		BodyLimit:             10 << 20,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
		ProxyHeader:           fiber.HeaderXForwardedFor,
	})

	middlewares.SetupMiddlewares(app, k.Cfg, log)
	database.WarmUpQueries(k.DB, log)
	scheduler.StartBlacklistCleanupScheduler(ctx, k.DB, log)
	routes.SetupRoutes(app, k)

	errCh := make(chan error, 1)
	go func() {
		log.Info("✅ listening", zap.String("port", k.Cfg.Port), zap.String("env", k.Cfg.Env))
		errCh <- app.Listen("0.0.0.0:" + k.Cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, db, err := boot()
			if err != nil {
				return err
			}
			defer database.Close(db)
			return database.AutoMigrate(db.WithContext(cmd.Context()), log)
		},
	}
}

func reconcileCmd() *cobra.Command {
	var orderID string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile one payment order against the gateway",
		Example: `  marathon reconcile --order-id MRN-20261019-101500-3F9A1C2B`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, cleanup, err := container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := k.Orders.Reconcile(cmd.Context(), orderID, paymentService.TriggerManual)
			if err != nil {
				return err
			}
			out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&orderID, "order-id", "", "merchant order id")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-sheets",
		Short: "Push paid participants to the configured Google Sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, cleanup, err := container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := k.Admin.ExportPaidToSheet(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s (%s)\n", res.Rows, res.SpreadsheetID, res.Range)
			return nil
		},
	}
}
