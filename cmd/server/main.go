package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/exiletally/deck-tracker/backend/internal/api"
	"github.com/exiletally/deck-tracker/backend/internal/config"
	"github.com/exiletally/deck-tracker/backend/internal/database"
	"github.com/exiletally/deck-tracker/backend/internal/logger"
	"github.com/exiletally/deck-tracker/backend/internal/services"
	"github.com/exiletally/deck-tracker/backend/internal/store"
	"github.com/exiletally/deck-tracker/backend/internal/valuation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envOnly := flag.Bool("env-only", false, "configure from environment only")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		zlog.Fatal("failed to open database", zap.String("path", cfg.DB.Path), zap.Error(err))
	}
	zlog.Info("database ready", zap.String("path", cfg.DB.Path))

	st, err := store.New(db)
	if err != nil {
		zlog.Fatal("failed to initialize store", zap.Error(err))
	}

	resolver := valuation.NewResolver(st, zlog.Named("valuation"))
	summaryService := services.NewSummaryService(st, zlog.Named("summary"))
	ninjaService := services.NewNinjaService(cfg.Ninja)
	snapshotService := services.NewSnapshotService(st, ninjaService, cfg.Snapshot, zlog.Named("snapshot"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Snapshot.Enabled && len(cfg.Snapshot.Leagues) > 0 {
		go snapshotService.Start(ctx)
	}

	router := api.SetupRouter(resolver, st, summaryService, snapshotService, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	go func() {
		zlog.Info("starting server", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}
