package handlers

import (
	"smarterd/internal/health"
	"smarterd/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// HealthHandler serves the liveness and metrics endpoints.
type HealthHandler struct {
	checker *health.Checker
	metrics *metrics.Metrics
}

// NewHealthHandler creates a new HealthHandler. m may be nil, in which case
// no metrics endpoint is registered.
func NewHealthHandler(checker *health.Checker, m *metrics.Metrics) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		metrics: m,
	}
}

// RegisterRoutes registers /health and /metrics.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
	if h.metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))
	}
}

// HandleHealth reports the state of the service dependencies. An unhealthy
// service answers 503.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status := h.checker.Check(c.UserContext())
	code := fiber.StatusOK
	if status.Status == health.StatusUnhealthy {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(status)
}
