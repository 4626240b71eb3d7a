package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/app"
	"github.com/nekogravitycat/smartroom-backend/internal/config"
	"github.com/nekogravitycat/smartroom-backend/internal/db"
	"github.com/nekogravitycat/smartroom-backend/internal/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(cfg.IsProduction)
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		zl.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrationsEnabled {
		if err := db.Migrate(ctx, pool, zl.Named("migrate")); err != nil {
			zl.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		DBPool:            pool,
		JWTSecret:         cfg.JWTSecret,
		JWTTTL:            cfg.JWTAccessTokenTTL,
		BcryptCost:        cfg.BcryptCost,
		StoragePath:       cfg.StoragePath,
		Location:          cfg.Location,
		PastGrace:         cfg.PastGrace,
		DeleteGrace:       cfg.DeleteGrace,
		MaxVideoSizeBytes: cfg.MaxVideoSizeBytes,
		Logger:            zl,
	})
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}

	// Relay change notifications into the local hub
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := container.Listener.Run(ctx); err != nil {
			zl.Error("change listener stopped", zap.Error(err))
		}
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		zl.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("timezone", cfg.Location.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zl.Info("shutdown signal received")

	// Open SSE streams would otherwise hold Shutdown until the timeout
	container.Hub.Close()

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server forced to shutdown", zap.Error(err))
	}

	// Deletes still inside their undo window are dropped
	container.Deferrer.Shutdown()
	wg.Wait()

	zl.Info("server exited gracefully")
}
