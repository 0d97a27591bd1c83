package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
)

type MetricsHandler struct {
	recorder *metrics.Recorder
}

func NewMetricsHandler(recorder *metrics.Recorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// Metrics returns the pipeline counters
func (h *MetricsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.recorder.Snapshot())
}
