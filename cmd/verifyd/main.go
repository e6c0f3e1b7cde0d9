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

	"go.uber.org/zap"

	"github.com/JihedeMedini/rfid-verify/internal/config"
	"github.com/JihedeMedini/rfid-verify/internal/httpapi"
	"github.com/JihedeMedini/rfid-verify/internal/logger"
	"github.com/JihedeMedini/rfid-verify/internal/mcp"
	"github.com/JihedeMedini/rfid-verify/internal/metrics"
	"github.com/JihedeMedini/rfid-verify/internal/storage"
	"github.com/JihedeMedini/rfid-verify/internal/tagsvc"
	"github.com/JihedeMedini/rfid-verify/internal/verifier"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("rfid-verify daemon\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	cfg := config.Parse()
	log := logger.Must(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	metrics.Register()

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		log.Fatalw("failed to open storage", "path", cfg.DatabasePath, "error", err)
	}
	defer func() { _ = store.Close() }()

	var resolver tagsvc.Resolver
	if cfg.TagServiceURL != "" {
		resolver = tagsvc.NewHTTPResolver(cfg.TagServiceURL, 5*time.Second)
		log.Infow("using external tag service", "url", cfg.TagServiceURL)
	} else {
		resolver = tagsvc.NewStoreResolver(store)
	}

	engine := verifier.New(store, resolver, log, &verifier.Config{
		LockTimeout: cfg.LockTimeout,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if cfg.MCPMode {
		runMCP(sigChan, engine, log)
		return
	}
	runHTTP(cfg, sigChan, engine, store, log)
}

func runMCP(sigChan chan os.Signal, engine *verifier.Verifier, log *zap.SugaredLogger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := mcp.NewServer(engine, log)

	errChan := make(chan error, 1)
	go func() {
		log.Infow("MCP server ready, listening on stdio", "version", version)
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Infow("shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalw("MCP server error", "error", err)
		}
	}
}

func runHTTP(cfg *config.Config, sigChan chan os.Signal, engine *verifier.Verifier,
	store storage.Storage, log *zap.SugaredLogger) {
	handler := httpapi.NewHandler(engine, store, log)

	server := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infow("HTTP server listening", "addr", cfg.RunAddress,
			"version", version, "driver", storage.DriverName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("HTTP server failed", "error", err)
		}
	}()

	sig := <-sigChan
	log.Infow("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown failed", "error", err)
		return
	}
	log.Infow("server stopped")
}
