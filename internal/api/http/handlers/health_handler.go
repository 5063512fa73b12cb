package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/apihub-auth/internal/api/dto"
	"github.com/spec-kit/apihub-auth/internal/persistence"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler constructs handler.
func NewHealthHandler(postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis}
}

// Live answers as long as the process is serving requests.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.NewEnvelope(http.StatusOK, "alive", nil))
}

// Ready checks the backing stores.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"postgres": "ok", "redis": "ok"}
	healthy := true

	if err := h.postgres.Ping(c.UserContext()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(c.UserContext()); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	if !healthy {
		c.Status(http.StatusServiceUnavailable)
		envelope := dto.NewEnvelope(http.StatusServiceUnavailable, "not ready", checks)
		return c.JSON(envelope)
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "ready", checks))
}
