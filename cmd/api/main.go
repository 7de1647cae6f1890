package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-alert/internal/infrastructure/config"
	"stock-alert/internal/infrastructure/db"
	"stock-alert/internal/infrastructure/logger"
	httpapi "stock-alert/internal/interface/http"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: load config failed: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Infow("configuration loaded", "http_addr", cfg.HTTP.Addr, "quote_provider", cfg.Quote.Provider, "alert_interval", cfg.Alert.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.Connect(connectCtx, cfg.DB)
	cancel()
	if err != nil {
		log.Warnw("database connection failed, falling back to in-memory store", "error", err)
		pool = nil
	} else if pool == nil {
		log.Infow("no DB_DSN provided; running with in-memory store only")
	} else {
		defer pool.Close()
		log.Infow("database connected successfully")
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if missing, err := db.MissingTables(checkCtx, pool); err != nil {
			log.Warnw("schema check failed", "error", err)
		} else if len(missing) > 0 {
			log.Warnw("schema incomplete, run cmd/migrate", "missing_tables", missing)
		}
		cancel()
	}

	apiServer := httpapi.NewServer(cfg, pool)
	apiServer.Start(ctx)
	defer apiServer.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting HTTP server", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Errorw("server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "error", err)
	}
}
