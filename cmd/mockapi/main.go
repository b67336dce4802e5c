package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"savora/internal/mockapi"
	"savora/internal/platform/config"
	"savora/internal/platform/logger"
)

// main wires the development backend: an in-memory API serving the same
// endpoints as production, for running the SDK against locally.
func main() {
	cfg := config.ServerFromEnv()
	log := logger.New()

	backend := mockapi.New(
		mockapi.WithSigningKey(cfg.SigningKey),
		mockapi.WithTokenTTL(cfg.TokenTTL),
		mockapi.WithTaxRate(cfg.TaxRate),
		mockapi.WithLogger(log),
	)
	if cfg.Seed {
		if err := backend.Seed(); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		log.Info("seeded sample menu and accounts")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           backend.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting mock backend", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
