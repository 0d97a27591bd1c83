// Package face builds the configured face detector backend.
package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/config"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector/deepface"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector/pigo"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector/rekognition"
)

// NewDetector creates the Detector selected by DETECTOR_TYPE
//
// Environment variables:
//   - DETECTOR_TYPE: "pigo", "rekognition", "deepface" or "none" (default: "pigo")
//   - CASCADE_PATH: pigo cascade file (default: "./models/facefinder")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - DEEPFACE_DETECTOR: DeepFace detector backend (default: "opencv")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via the AWS SDK credential chain
func NewDetector(ctx context.Context, cfg *config.Config) (detector.Detector, error) {
	params := cfg.DetectorParams()

	switch detectorType := detector.Type(cfg.DetectorType); detectorType {
	case detector.TypePigo, "":
		return createPigoDetector(cfg, params)

	case detector.TypeRekognition:
		return createRekognitionDetector(ctx, cfg, params)

	case detector.TypeDeepFace:
		return createDeepFaceDetector(cfg, params), nil

	case detector.TypeNone:
		return detector.None{}, nil

	default:
		return nil, fmt.Errorf("unknown detector type: %s (supported: %v)", cfg.DetectorType, detector.Types())
	}
}

// createPigoDetector loads the cascade; a missing file fails startup
func createPigoDetector(cfg *config.Config, params detector.Params) (detector.Detector, error) {
	d, err := pigo.New(pigo.Config{
		CascadePath: cfg.CascadePath,
		Params:      params,
	})
	if err != nil {
		return nil, fmt.Errorf("create pigo detector: %w", err)
	}
	return d, nil
}

// createRekognitionDetector creates an AWS Rekognition detector instance
func createRekognitionDetector(ctx context.Context, cfg *config.Config, params detector.Params) (detector.Detector, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	d, err := rekognition.New(ctx, rekogConfig, params)
	if err != nil {
		return nil, fmt.Errorf("create rekognition detector in %s: %w", rekogConfig.Region, err)
	}
	return d, nil
}

// createDeepFaceDetector creates a DeepFace detector instance
func createDeepFaceDetector(cfg *config.Config, params detector.Params) detector.Detector {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	deepfaceConfig.RetryCount = 1
	// Detection runs inside the request deadline
	if cfg.RequestTimeout > 0 {
		deepfaceConfig.Timeout = min(deepfaceConfig.Timeout, cfg.RequestTimeout)
	}

	return deepface.New(deepfaceConfig, params)
}
