package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector"
)

type Config struct {
	// Server
	ServiceName string `envconfig:"SERVICE_NAME" default:"mood-detection-service"`
	Environment string `envconfig:"ENV" default:"development"`
	Host        string `envconfig:"HOST" default:"0.0.0.0"`
	Port        int    `envconfig:"PORT" default:"8001"`

	// Model
	ModelPath          string `envconfig:"MODEL_PATH" default:"./models/mood_mobilenetv2.onnx"`
	ModelInputSize     int    `envconfig:"MODEL_INPUT_SIZE" default:"224"`
	ModelInputChannels int    `envconfig:"MODEL_INPUT_CHANNELS" default:"3"`
	ONNXLibraryPath    string `envconfig:"ONNX_LIBRARY_PATH"`
	ONNXIntraOpThreads int    `envconfig:"ONNX_INTRA_OP_THREADS" default:"0"`

	// Image processing
	MaxImageSizeMB    int `envconfig:"MAX_IMAGE_SIZE_MB" default:"10"`
	MaxImageDimension int `envconfig:"MAX_IMAGE_DIMENSION" default:"2048"`

	// Face detection
	FaceDetectionConfidence float64  `envconfig:"FACE_DETECTION_CONFIDENCE" default:"0.5"`
	MinFaceSize             int      `envconfig:"MIN_FACE_SIZE" default:"48"`
	FacePaddingRatio        float64  `envconfig:"FACE_PADDING_RATIO" default:"0.2"`
	EmotionLabels           []string `envconfig:"EMOTION_LABELS" default:"angry,disgust,fear,happy,neutral,sad,surprise"`

	// Detector backends
	DetectorType     string `envconfig:"DETECTOR_TYPE" default:"pigo"`
	CascadePath      string `envconfig:"CASCADE_PATH" default:"./models/facefinder"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Limits
	RequestTimeout          time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MaxConcurrentInferences int           `envconfig:"MAX_CONCURRENT_INFERENCES" default:"0"`
	RateLimitMax            int           `envconfig:"RATE_LIMIT_MAX" default:"0"`
	MetricsLogInterval      time.Duration `envconfig:"METRICS_LOG_INTERVAL" default:"0s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.EmotionLabels = trimLabels(cfg.EmotionLabels)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be in 1..65535, got %d", c.Port))
	}
	if c.ModelInputSize <= 0 {
		errs = append(errs, fmt.Errorf("MODEL_INPUT_SIZE must be positive, got %d", c.ModelInputSize))
	}
	if c.ModelInputChannels != 3 {
		errs = append(errs, fmt.Errorf("MODEL_INPUT_CHANNELS must be 3, got %d", c.ModelInputChannels))
	}
	if c.ONNXIntraOpThreads < 0 {
		errs = append(errs, fmt.Errorf("ONNX_INTRA_OP_THREADS must not be negative, got %d", c.ONNXIntraOpThreads))
	}
	if c.MaxImageSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_IMAGE_SIZE_MB must be positive, got %d", c.MaxImageSizeMB))
	}
	if c.MaxImageDimension <= 0 {
		errs = append(errs, fmt.Errorf("MAX_IMAGE_DIMENSION must be positive, got %d", c.MaxImageDimension))
	}
	if c.FaceDetectionConfidence < 0 || c.FaceDetectionConfidence > 1 {
		errs = append(errs, fmt.Errorf("FACE_DETECTION_CONFIDENCE must be in [0,1], got %g", c.FaceDetectionConfidence))
	}
	if c.MinFaceSize <= 0 {
		errs = append(errs, fmt.Errorf("MIN_FACE_SIZE must be positive, got %d", c.MinFaceSize))
	}
	if c.FacePaddingRatio < 0 || c.FacePaddingRatio >= 1 {
		errs = append(errs, fmt.Errorf("FACE_PADDING_RATIO must be in [0,1), got %g", c.FacePaddingRatio))
	}
	if len(c.EmotionLabels) == 0 {
		errs = append(errs, errors.New("EMOTION_LABELS must not be empty"))
	}
	if dup := firstDuplicate(c.EmotionLabels); dup != "" {
		errs = append(errs, fmt.Errorf("EMOTION_LABELS has duplicate label %q", dup))
	}
	if !detector.Type(c.DetectorType).Valid() {
		errs = append(errs, fmt.Errorf("DETECTOR_TYPE %q is not one of %v", c.DetectorType, detector.Types()))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout))
	}
	if c.MaxConcurrentInferences < 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENT_INFERENCES must not be negative, got %d", c.MaxConcurrentInferences))
	}
	if c.RateLimitMax < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must not be negative, got %d", c.RateLimitMax))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MaxImageBytes is the upload ceiling in bytes
func (c *Config) MaxImageBytes() int {
	return c.MaxImageSizeMB * 1024 * 1024
}

// DetectorParams returns the detection parameters shared by all backends
func (c *Config) DetectorParams() detector.Params {
	params := detector.DefaultParams()
	params.MinSize = c.MinFaceSize
	params.Confidence = c.FaceDetectionConfidence
	return params
}

func trimLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func firstDuplicate(labels []string) string {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return l
		}
		seen[l] = struct{}{}
	}
	return ""
}
