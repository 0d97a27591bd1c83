package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name:    "uses defaults when optional vars missing",
			envVars: map[string]string{},
			wantErr: false,
			check: func(c *Config) bool {
				return c.ServiceName == "mood-detection-service" &&
					c.Port == 8001 &&
					c.Host == "0.0.0.0" &&
					c.Environment == "development" &&
					c.ModelPath == "./models/mood_mobilenetv2.onnx" &&
					c.ModelInputSize == 224 &&
					c.MaxImageSizeMB == 10 &&
					c.MaxImageDimension == 2048 &&
					c.MinFaceSize == 48 &&
					c.FaceDetectionConfidence == 0.5 &&
					c.FacePaddingRatio == 0.2 &&
					c.DetectorType == "pigo" &&
					c.RequestTimeout == 30*time.Second &&
					strings.Join(c.EmotionLabels, ",") == "angry,disgust,fear,happy,neutral,sad,surprise"
			},
		},
		{
			name: "loads overrides",
			envVars: map[string]string{
				"PORT":              "9000",
				"ENV":               "production",
				"DETECTOR_TYPE":     "rekognition",
				"MAX_IMAGE_SIZE_MB": "5",
				"EMOTION_LABELS":    "happy, sad ,neutral",
				"REQUEST_TIMEOUT":   "5s",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 9000 &&
					c.Environment == "production" &&
					c.DetectorType == "rekognition" &&
					c.MaxImageBytes() == 5*1024*1024 &&
					strings.Join(c.EmotionLabels, ",") == "happy,sad,neutral" &&
					c.RequestTimeout == 5*time.Second
			},
		},
		{
			name:    "fails on malformed number",
			envVars: map[string]string{"PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "fails on unknown detector",
			envVars: map[string]string{"DETECTOR_TYPE": "opencv"},
			wantErr: true,
		},
		{
			name:    "fails on empty label list",
			envVars: map[string]string{"EMOTION_LABELS": " , "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func validConfig() Config {
	return Config{
		ServiceName:             "mood-detection-service",
		Environment:             "development",
		Host:                    "0.0.0.0",
		Port:                    8001,
		ModelInputSize:          224,
		ModelInputChannels:      3,
		MaxImageSizeMB:          10,
		MaxImageDimension:       2048,
		FaceDetectionConfidence: 0.5,
		MinFaceSize:             48,
		FacePaddingRatio:        0.2,
		EmotionLabels:           []string{"angry", "happy"},
		DetectorType:            "pigo",
		RequestTimeout:          30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero port", func(c *Config) { c.Port = 0 }, "PORT"},
		{"zero input size", func(c *Config) { c.ModelInputSize = 0 }, "MODEL_INPUT_SIZE"},
		{"grayscale model", func(c *Config) { c.ModelInputChannels = 1 }, "MODEL_INPUT_CHANNELS"},
		{"zero upload limit", func(c *Config) { c.MaxImageSizeMB = 0 }, "MAX_IMAGE_SIZE_MB"},
		{"negative dimension", func(c *Config) { c.MaxImageDimension = -1 }, "MAX_IMAGE_DIMENSION"},
		{"confidence above one", func(c *Config) { c.FaceDetectionConfidence = 1.5 }, "FACE_DETECTION_CONFIDENCE"},
		{"padding of one", func(c *Config) { c.FacePaddingRatio = 1 }, "FACE_PADDING_RATIO"},
		{"min face zero", func(c *Config) { c.MinFaceSize = 0 }, "MIN_FACE_SIZE"},
		{"duplicate labels", func(c *Config) { c.EmotionLabels = []string{"happy", "happy"} }, "duplicate"},
		{"unknown detector", func(c *Config) { c.DetectorType = "haar" }, "DETECTOR_TYPE"},
		{"negative concurrency", func(c *Config) { c.MaxConcurrentInferences = -2 }, "MAX_CONCURRENT_INFERENCES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := validConfig()

	if got := cfg.Addr(); got != "0.0.0.0:8001" {
		t.Errorf("Addr() = %v, want 0.0.0.0:8001", got)
	}
	if got := cfg.MaxImageBytes(); got != 10*1024*1024 {
		t.Errorf("MaxImageBytes() = %v, want %v", got, 10*1024*1024)
	}

	params := cfg.DetectorParams()
	if params.MinSize != 48 || params.Confidence != 0.5 || params.MinNeighbors != 5 || params.ScaleFactor != 1.1 {
		t.Errorf("DetectorParams() = %+v", params)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}
