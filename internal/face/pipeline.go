package face

import (
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/classifier"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/config"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/postprocess"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/preprocess"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/service"
)

// LoadClassifier loads the ONNX model named by MODEL_PATH into a handle.
// On error the returned handle is still usable and reports not ready.
func LoadClassifier(cfg *config.Config) (*classifier.Handle, error) {
	handle := classifier.NewHandle(nil)

	engine, err := classifier.LoadONNX(classifier.ONNXConfig{
		ModelPath:      cfg.ModelPath,
		LibraryPath:    cfg.ONNXLibraryPath,
		IntraOpThreads: cfg.ONNXIntraOpThreads,
		InputSize:      cfg.ModelInputSize,
		Channels:       preprocess.Channels,
		NumClasses:     len(cfg.EmotionLabels),
	})
	if err != nil {
		return handle, fmt.Errorf("load emotion model: %w", err)
	}

	handle.Set(engine)
	return handle, nil
}

// NewEmotionService wires the detector and classifier into the pipeline.
// Swallowed detector failures are counted on recorder.
func NewEmotionService(
	cfg *config.Config,
	det detector.Detector,
	clf classifier.Classifier,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) *service.EmotionService {
	locator := detector.NewLocator(det, logger, detector.WithFailureHook(recorder.DetectorFailure))

	return service.NewEmotionService(locator, clf, postprocess.NewSynthesizer(cfg.EmotionLabels), service.EmotionConfig{
		InputSize:     cfg.ModelInputSize,
		MaxDimension:  cfg.MaxImageDimension,
		PaddingRatio:  cfg.FacePaddingRatio,
		MaxConcurrent: cfg.MaxConcurrentInferences,
		Timeout:       cfg.RequestTimeout,
	}).WithMetrics(recorder).WithLogger(logger)
}
