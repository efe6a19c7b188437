// Package main is the entry point of the SNAIL spectrum solver HTTP service.
//
// The service exposes single-point ancilla analyses and background parameter
// sweeps whose results are stored in a SQLite database under the data
// directory.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/snailsolver/internal/config"
	"github.com/aristath/snailsolver/internal/database"
	"github.com/aristath/snailsolver/internal/modules/sweep"
	"github.com/aristath/snailsolver/internal/server"
	"github.com/aristath/snailsolver/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("workers", cfg.Workers).
		Int("fock_trunc", cfg.FockTrunc).
		Int("taylor_degree", cfg.TaylorDegree).
		Msg("Starting SNAIL solver")

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "sweeps",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open sweeps database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply sweeps schema")
	}

	repo := sweep.NewRepository(db.Conn(), log)
	sweeps := sweep.NewService(repo, cfg.Workers, log)
	sweeps.SetMaxGridCells(cfg.MaxGridCells)

	srv := server.New(server.Config{
		Log:     log,
		DB:      db,
		Config:  cfg,
		Sweeps:  sweeps,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Running sweeps are cancelled and recorded as failed.
	if err := sweeps.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Sweeps did not stop in time")
	}

	log.Info().Msg("Server stopped")
}
