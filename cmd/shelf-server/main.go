// Command shelf-server runs the shelf HTTP API for UI clients: it
// serves the operation-log queries and the revert endpoints.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/pkalnins/shelf/internal/config"
	"github.com/pkalnins/shelf/internal/server"
	"github.com/pkalnins/shelf/internal/store"
	"github.com/pkalnins/shelf/internal/undo"
)

func main() {
	listen := flag.String("listen", envOrDefault("SHELF_LISTEN", ""), "Listen address (defaults to the configured one)")
	logLevel := flag.String("log-level", envOrDefault("SHELF_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", envOrDefault("SHELF_LOG_FORMAT", "text"), "Log format (json, text)")
	flag.Parse()

	logger := newLogger(*logLevel, *logFormat)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *listen == "" {
		*listen = cfg.Listen
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	tracker := undo.NewTracker(undo.DefaultProgressTTL)
	defer tracker.Stop()

	validator := &undo.Validator{VolumeRoots: cfg.VolumeRoots}
	engine := undo.NewEngine(st, validator, tracker, logger)

	handler, cleanup := server.Handler(st, engine, nil, logger)
	defer cleanup()

	srv := &http.Server{
		Addr:              *listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shelf-server listening", "addr", *listen, "data_dir", cfg.Path())
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}

// newLogger builds the process logger: JSON for machine consumption,
// tinted console output otherwise.
func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(handler)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
