package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"arcade-inventory-backend/config"
	"arcade-inventory-backend/internal/api"
	"arcade-inventory-backend/internal/auth"
	"arcade-inventory-backend/internal/blob"
	"arcade-inventory-backend/internal/cleanup"
	"arcade-inventory-backend/internal/db"
	"arcade-inventory-backend/internal/logger"
	"arcade-inventory-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	// Setup logger
	zlog, err := logger.New(cfg.Log, cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)
	zlog.Info("configuration loaded", zap.String("path", configPath), zap.String("env", cfg.Server.Env))

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	gormDB, err := db.Init(ctx, &cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	appStore := store.NewGormStore(gormDB)

	blobs, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		zlog.Fatal("failed to initialize image storage", zap.Error(err))
	}
	if c, ok := blobs.(io.Closer); ok {
		defer c.Close()
	}
	zlog.Info("image storage ready", zap.String("provider", cfg.Storage.Provider))

	authSvc := auth.NewService(appStore, cfg.Auth, zlog)

	// Image cleanup runs in the background
	cleaner := cleanup.NewWorkerPool(2, 64, blobs, zlog)
	cleaner.Start(ctx)

	// Initialize router
	router := api.NewRouter(cfg, appStore, authSvc, blobs, cleaner, zlog)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		zlog.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	zlog.Info("shutdown signal received, stopping services")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("HTTP server Shutdown", zap.Error(err))
	}
	cleaner.Stop()

	zlog.Info("server gracefully stopped")
}
