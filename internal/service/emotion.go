package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/classifier"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/geometry"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/postprocess"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/preprocess"
)

// FaceLocator finds the most prominent face, if any
type FaceLocator interface {
	Locate(ctx context.Context, img *image.Gray) (domain.BoundingBox, bool)
}

// EmotionConfig holds the pipeline knobs
type EmotionConfig struct {
	InputSize     int
	MaxDimension  int
	PaddingRatio  float64
	MaxConcurrent int
	Timeout       time.Duration
}

// EmotionService runs the decode, locate, crop, normalize, classify and
// synthesize pipeline for one image at a time per caller.
type EmotionService struct {
	locator    FaceLocator
	classifier classifier.Classifier
	synth      *postprocess.Synthesizer
	cfg        EmotionConfig
	sem        *semaphore.Weighted
	metrics    *metrics.Recorder
	logger     *slog.Logger
}

func NewEmotionService(
	locator FaceLocator,
	clf classifier.Classifier,
	synth *postprocess.Synthesizer,
	cfg EmotionConfig,
) *EmotionService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = runtime.GOMAXPROCS(0)
	}

	return &EmotionService{
		locator:    locator,
		classifier: clf,
		synth:      synth,
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger:     slog.Default(),
	}
}

func (s *EmotionService) WithMetrics(r *metrics.Recorder) *EmotionService {
	s.metrics = r
	return s
}

func (s *EmotionService) WithLogger(logger *slog.Logger) *EmotionService {
	s.logger = logger
	return s
}

// Ready reports whether the classifier can serve requests
func (s *EmotionService) Ready() bool {
	return s.classifier.Ready()
}

type outcome struct {
	result *domain.EmotionResult
	err    *domain.AppError
}

// Analyze runs the pipeline on raw image bytes. Every error it returns is a
// *domain.AppError.
func (s *EmotionService) Analyze(ctx context.Context, data []byte) (*domain.EmotionResult, error) {
	start := time.Now()
	s.metrics.RequestStarted()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, s.fail(domain.ErrTimeout.WithError(err))
	}

	done := make(chan outcome, 1)
	go func() {
		defer s.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: domain.ErrInternal.WithError(fmt.Errorf("pipeline panic: %v", r))}
			}
		}()

		result, err := s.run(ctx, data)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, s.fail(domain.ErrTimeout.WithError(ctx.Err()))
	case out := <-done:
		if out.err != nil {
			return nil, s.fail(out.err)
		}
		s.metrics.RequestSucceeded(time.Since(start))
		return out.result, nil
	}
}

func (s *EmotionService) fail(err *domain.AppError) *domain.AppError {
	s.metrics.RequestFailed(err.Kind)
	return err
}

func (s *EmotionService) run(ctx context.Context, data []byte) (*domain.EmotionResult, *domain.AppError) {
	decoded, err := preprocess.Decode(data)
	if err != nil {
		return nil, domain.ErrDecode.WithError(err)
	}

	img, resized, err := preprocess.Downscale(decoded.Image, s.cfg.MaxDimension)
	if err != nil {
		return nil, domain.ErrPreprocess.WithError(err)
	}
	if resized {
		s.metrics.Downscaled()
		s.logger.Debug("image downscaled",
			"from_width", decoded.Width(), "from_height", decoded.Height(),
			"to_width", img.Bounds().Dx(), "to_height", img.Bounds().Dy(),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.ErrTimeout.WithError(err)
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	var face *domain.BoundingBox
	crop := geometry.CenterCropBox(height, width)
	if box, found := s.locator.Locate(ctx, preprocess.Grayscale(img)); found {
		face = &box
		crop = geometry.PaddedFaceBox(box, height, width, s.cfg.PaddingRatio)
		s.metrics.FaceDetected()
	} else {
		s.metrics.CenterCropFallback()
	}

	tensor, err := preprocess.Normalize(img, crop, s.cfg.InputSize)
	if err != nil {
		return nil, domain.ErrPreprocess.WithError(err)
	}

	inferStart := time.Now()
	scores, err := s.classifier.Classify(ctx, tensor)
	if err != nil {
		return nil, classifyError(err)
	}
	s.metrics.Inference(time.Since(inferStart))

	result := s.synth.Build(scores, face)
	return &result, nil
}

func classifyError(err error) *domain.AppError {
	switch {
	case errors.Is(err, classifier.ErrNotReady):
		return domain.ErrModelNotReady.WithError(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.ErrTimeout.WithError(err)
	default:
		return domain.ErrInference.WithError(err)
	}
}
