package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/defit-store/backend/internal/auth"
	"github.com/defit-store/backend/internal/config"
	"github.com/defit-store/backend/internal/db"
	storeHttp "github.com/defit-store/backend/internal/handler/http"
	"github.com/defit-store/backend/internal/order"
	"github.com/defit-store/backend/internal/product"
	"github.com/defit-store/backend/internal/stats"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	var envPath string

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "DeFit storefront and admin back-office API",
	}
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "path to .env file")

	rootCmd.AddCommand(serveCommand(&envPath), migrateCommand(&envPath))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func serveCommand(envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func migrateCommand(envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envPath)
			if err != nil {
				return err
			}
			return db.Migrate(cfg.Postgres, cfg.MigrationsDir)
		},
	}
}

func serve(cfg *config.Config) error {
	log.Info().Msg("Storefront starting...")

	ctx := context.Background()
	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	productRepo := product.NewRepository(pg.Pool)
	productSvc := product.NewService(productRepo)

	orderRepo := order.NewRepository(pg.Pool)
	orderSvc := order.NewService(orderRepo, productSvc)

	statsSvc := stats.NewService(orderSvc, productSvc, cfg.App.LowStockThreshold)
	sessions := auth.NewSessions(cfg.Admin)

	router := storeHttp.NewRouter(
		sessions,
		storeHttp.NewProductHandler(productSvc),
		storeHttp.NewOrderHandler(orderSvc),
		storeHttp.NewAdminHandler(sessions, statsSvc),
	)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Storefront stopped gracefully")
	return nil
}
