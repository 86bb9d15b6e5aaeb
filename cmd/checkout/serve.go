// cmd/checkout/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"libracheckout/internal/circulation"
	"libracheckout/internal/clients"
	"libracheckout/internal/config"
	"libracheckout/internal/eventstore"
	"libracheckout/internal/logging"
	"libracheckout/internal/server"
	"libracheckout/internal/session"
	"libracheckout/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the checkout HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "8082", "port to listen on")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, "checkout", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shut down telemetry")
		}
	}()

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	for _, schema := range []string{eventstore.Schema, circulation.LoanSchema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	es := eventstore.NewEventStore(db)
	catalogClient := clients.NewCatalogClient(cfg.CatalogServiceURL)
	membershipClient := clients.NewMembershipClient(cfg.MembershipServiceURL)

	svc := circulation.NewService(catalogClient, membershipClient, es, circulation.NewLoanRepository(db), circulation.Options{
		LoanPeriod:    cfg.LoanPeriod(),
		RatePerMinute: cfg.CheckoutRatePerMinute,
		Burst:         cfg.CheckoutRateBurst,
		Override:      circulation.Passcode{Hash: cfg.OverridePasscodeHash, Salt: cfg.OverridePasscodeSalt},
	}, logger)

	manager, err := session.NewManager(svc, es, cfg.SessionTTL, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("session sweeper stopped")
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.NewRouter(session.NewHandler(manager, logger), db, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting checkout service")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down checkout service")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
