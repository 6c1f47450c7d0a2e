package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedhub/mailsync/internal/api"
	"github.com/vedhub/mailsync/internal/app"
	"github.com/vedhub/mailsync/internal/config"
	"github.com/vedhub/mailsync/internal/logger"
	"github.com/vedhub/mailsync/internal/session"
	ws "github.com/vedhub/mailsync/internal/websocket"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("Starting mailsync server...")
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(log)
	go hub.Run()

	deps, err := app.Build(ctx, cfg, hub, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Error("failed to close dependencies", slog.Any("error", err))
		}
	}()

	router := api.NewRouter(&api.RouterConfig{
		Ctx:            ctx,
		DB:             deps.DB,
		Redis:          deps.RedisClient(),
		Engine:         deps.Engine,
		Tokens:         deps.Tokens,
		Hub:            hub,
		Issuer:         session.NewIssuer(cfg.SessionSecret),
		Logger:         log,
		SecurityLogger: logger.NewSecurityLogger(log),
		AllowedOrigins: cfg.Origins(),
		Production:     cfg.IsProduction(),
		RateLimit:      cfg.RateLimitRequests,
		RateBurst:      cfg.RateLimitBurst,
		SyncTimeout:    cfg.SyncTimeout,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
