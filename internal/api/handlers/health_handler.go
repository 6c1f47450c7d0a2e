package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
}

// NewHealthHandler creates a new HealthHandler. redisClient may be nil when the
// distributed sync lock is not configured.
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	services := map[string]string{"database": "healthy"}
	status := "healthy"

	if err := h.pingDB(ctx); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	}

	if h.redis != nil {
		services["redis"] = "healthy"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			services["redis"] = "unhealthy"
			status = "unhealthy"
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.pingDB(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
