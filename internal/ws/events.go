package ws

import (
	"time"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// Frame is the reply to one streamed image. Exactly one of Result and
// Error is set.
type Frame struct {
	Seq       uint64                `json:"seq"`
	Result    *domain.EmotionResult `json:"result,omitempty"`
	Error     *domain.AppError      `json:"error,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}
