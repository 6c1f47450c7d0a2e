// Package app assembles the sync services from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vedhub/mailsync/internal/config"
	"github.com/vedhub/mailsync/internal/database"
	"github.com/vedhub/mailsync/internal/gmail"
	"github.com/vedhub/mailsync/internal/repository"
	"github.com/vedhub/mailsync/internal/services"
	"github.com/vedhub/mailsync/internal/synclock"
)

// App holds the long-lived dependencies shared by the server and the CLI
type App struct {
	DB     *gorm.DB
	Redis  *redis.Client // nil unless REDIS_URL is set
	Tokens services.TokenManager
	Engine services.SyncEngine
}

// Build opens the store, connects Redis when configured and wires the engine.
// notifier may be nil.
func Build(ctx context.Context, cfg *config.Config, notifier services.Notifier, logger *slog.Logger) (*App, error) {
	dbLogLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		dbLogLevel = gormlogger.Info
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{
		Production: cfg.IsProduction(),
		LogLevel:   dbLogLevel,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	a := &App{DB: db}

	opts := []services.SyncEngineOption{services.WithNotifier(notifier)}
	if cfg.RedisURL != "" {
		client, err := synclock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Redis = client
		opts = append(opts, services.WithLocker(synclock.NewRedisLocker(client, "", 0, logger)))
		logger.Info("using redis sync lock")
	}

	oauthConfig := services.NewGoogleOAuthConfig(services.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	a.Tokens = services.NewTokenManager(repository.NewCredentialRepository(db), oauthConfig, logger)

	client := gmail.NewAPIClient(a.Tokens, gmail.Options{
		RequestsPerSecond: cfg.GmailRequestsPerSecond,
	}, logger)

	a.Engine = services.NewSyncEngine(
		client,
		repository.NewMessageRepository(db),
		repository.NewCursorRepository(db),
		services.SyncEngineConfig{
			Workers:     cfg.SyncWorkers,
			AlertsQuery: cfg.AlertsQuery,
		},
		logger,
		opts...,
	)
	return a, nil
}

// Close releases the store and Redis connections
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RedisClient returns the Redis client as an interface, nil when Redis is off
func (a *App) RedisClient() redis.UniversalClient {
	if a.Redis == nil {
		return nil
	}
	return a.Redis
}
