package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ReadinessChecker reports whether the service can take inference traffic
type ReadinessChecker interface {
	Ready() bool
}

type HealthHandler struct {
	serviceName string
	checker     ReadinessChecker
}

func NewHealthHandler(serviceName string, checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		checker:     checker,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
	})
}

// Ready returns 503 until the emotion model is loaded
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.checker == nil || !h.checker.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "not_ready",
		})
	}
	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
