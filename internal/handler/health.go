package handler

import (
	"context"
	"time"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DBPinger is satisfied by *sqlx.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db    DBPinger
	cache domain.Cache
}

func NewHealthHandler(db DBPinger, cache domain.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check godoc
// @Summary Health check
// @Description Pings the database and the session cache.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.Map{"status": "ok", "database": "ok", "cache": "ok"}
	healthy := true
	if err := h.db.PingContext(ctx); err != nil {
		logger.Get().Warn("Database health check failed", zap.Error(err))
		status["database"] = "unavailable"
		healthy = false
	}
	if err := h.cache.Ping(ctx); err != nil {
		logger.Get().Warn("Cache health check failed", zap.Error(err))
		status["cache"] = "unavailable"
		healthy = false
	}

	if !healthy {
		status["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
