package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/weekplan/internal/config"
	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/server"
)

func main() {
	cfg, err := config.LoadServer(os.Getenv("WEEKPLAN_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Output: os.Stdout,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store server.Store
		index gdrive.Index
	)
	switch cfg.Store {
	case "memory":
		store = server.NewMemStore(model.Snapshot{})
		index = gdrive.NewMemoryIndex()
	default:
		pg, err := server.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		store = pg
		index = server.NewPgIndex(pg.DB())
	}

	var lister gdrive.Lister
	if cfg.Drive.CredentialsPath != "" {
		gl, err := gdrive.NewGoogleLister(ctx, cfg.Drive.CredentialsPath, cfg.Drive.TokenPath, cfg.Drive.SharedDriveID)
		if err != nil {
			logger.Warn("google drive disabled", logger.Err(err))
		} else {
			lister = gl
		}
	}
	scanner := gdrive.NewScanner(lister, index)
	scanner.SetDefaultLookback(cfg.Drive.LookbackHours)

	srv := server.New(store,
		server.WithDrive(scanner),
		server.WithRetention(time.Duration(cfg.RetentionDays)*24*time.Hour),
	)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing store", logger.Err(err))
		}
	}()

	go srv.Sweeper().Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("weekplan server starting", logger.F("addr", cfg.Addr()), logger.F("store", cfg.Store))
		errCh <- srv.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Server failed", logger.Err(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", logger.Err(err))
		}
		logger.Info("weekplan server stopped")
	}
}
