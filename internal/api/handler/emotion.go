package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
)

// EmotionService interface for the service
type EmotionService interface {
	Analyze(ctx context.Context, data []byte) (*domain.EmotionResult, error)
	Ready() bool
}

// EmotionHandler handles mood inference uploads
type EmotionHandler struct {
	service  EmotionService
	maxBytes int64
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// NewEmotionHandler creates a new EmotionHandler. maxBytes is the upload ceiling.
func NewEmotionHandler(service EmotionService, maxBytes int64, recorder *metrics.Recorder, logger *slog.Logger) *EmotionHandler {
	return &EmotionHandler{
		service:  service,
		maxBytes: maxBytes,
		metrics:  recorder,
		logger:   logger,
	}
}

// InferMood handles POST /infer/mood
func (h *EmotionHandler) InferMood(c *fiber.Ctx) error {
	data, err := h.extractAndValidateImage(c)
	if err != nil {
		h.metrics.RequestFailed(domain.KindInput)
		return err
	}

	result, err := h.service.Analyze(c.UserContext(), data)
	if err != nil {
		return err
	}

	h.logger.Debug("mood inferred",
		slog.String("emotion", result.PredictedEmotion),
		slog.Float64("confidence", result.Confidence),
		slog.Bool("face_detected", result.FaceDetected),
	)

	return c.JSON(result)
}

// extractAndValidateImage extracts and validates the image from the form
func (h *EmotionHandler) extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	// 1. Extract file, "image" is accepted for older clients
	file, err := formFile(c, "file", "image")
	if err != nil {
		return nil, domain.ErrMissingImage.WithError(err)
	}

	// 2. Validate Content-Type
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.ErrNotImage
	}

	// 3. Validate size
	if file.Size == 0 {
		return nil, domain.ErrUnreadableUpload
	}
	if file.Size > h.maxBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	// 4. Read image bytes
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrUnreadableUpload.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return nil, domain.ErrUnreadableUpload.WithError(err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	return data, nil
}

func formFile(c *fiber.Ctx, fields ...string) (*multipart.FileHeader, error) {
	var err error
	for _, field := range fields {
		var file *multipart.FileHeader
		file, err = c.FormFile(field)
		if err == nil {
			return file, nil
		}
	}
	return nil, err
}
