package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vedhub/mailsync/internal/api/handlers"
	"github.com/vedhub/mailsync/internal/api/middleware"
	"github.com/vedhub/mailsync/internal/logger"
	"github.com/vedhub/mailsync/internal/services"
	"github.com/vedhub/mailsync/internal/session"
	ws "github.com/vedhub/mailsync/internal/websocket"
)

const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	// Ctx bounds background work started by middleware
	Ctx context.Context

	DB     *gorm.DB
	Redis  redis.UniversalClient // optional
	Engine services.SyncEngine
	Tokens services.TokenManager
	Hub    *ws.Hub
	Issuer *session.Issuer

	Logger         *slog.Logger
	SecurityLogger *logger.SecurityLogger

	AllowedOrigins []string
	Production     bool
	RateLimit      float64
	RateBurst      int
	SyncTimeout    time.Duration
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	ctx := cfg.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	rps, burst := cfg.RateLimit, cfg.RateBurst
	if rps <= 0 {
		rps, burst = defaultRateLimit, defaultRateBurst
	}

	// Order matters: recover outermost, request id before anything that logs
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))
	e.Use(middleware.RateLimiter(ctx, rps, burst, cfg.SecurityLogger))
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	syncHandler := handlers.NewSyncHandler(cfg.Engine, cfg.SyncTimeout)
	mailHandler := handlers.NewMailHandler(cfg.Engine)
	oauthHandler := handlers.NewOAuthHandler(cfg.Tokens, cfg.Issuer, cfg.SecurityLogger)
	wsHandler := handlers.NewWSHandler(cfg.Hub, ws.NewSecureUpgrader(cfg.AllowedOrigins, cfg.Logger), cfg.SecurityLogger)

	requireSession := middleware.SessionAuth(cfg.Issuer, cfg.SecurityLogger)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// The provider redirects the browser here without a session; the signed state names the user
	e.GET("/api/oauth/google/callback", oauthHandler.Callback)

	e.GET("/ws", wsHandler.Serve, requireSession)

	api := e.Group("/api", requireSession)

	api.GET("/oauth/google/url", oauthHandler.URL)

	api.POST("/alerts/sync", syncHandler.SyncAlerts)

	mail := api.Group("/mail")
	mail.POST("/sync", syncHandler.SyncMail)
	mail.POST("/action", mailHandler.Action)
	mail.POST("/send", mailHandler.Send)
	mail.POST("/draft", mailHandler.Draft)
	mail.GET("/messages", mailHandler.List)
	mail.GET("/messages/:id", mailHandler.Get)

	return e
}
