package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcclellann/hoaLedger/internal/config"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/store"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// runOverdueSweep re-derives pending/overdue once at start and then on every tick.
func (s *Server) runOverdueSweep(ctx context.Context, interval time.Duration) {
	sweep := func() {
		if _, err := s.ledger.RefreshOverdue(ctx, s.now()); err != nil {
			s.log.Error().Err(err).Msg("Overdue sweep failed")
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	closer, err := logger.Setup(cfg.GetLoggerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer closer.Close()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SQLite store")
	}
	defer sqliteStore.Close()

	server := NewServer(sqliteStore)
	server.defaultCommonAreaPct = decimal.NewNullDecimal(cfg.DefaultCommonAreaPercentage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.runOverdueSweep(ctx, cfg.OverdueSweepInterval)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		server.log.Info().Str("addr", cfg.HTTPAddr).Msg("Server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.log.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	server.log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		server.log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
