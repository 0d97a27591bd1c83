package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrDecode,
			expected: "Failed to decode image",
		},
		{
			name:     "error with wrapped error",
			appErr:   ErrPreprocess.WithError(errors.New("zero-area crop")),
			expected: "Image preprocessing failed: zero-area crop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("session run failed")
	appErr := ErrInference.WithError(underlying)

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrDecode.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("model file missing")
	newErr := ErrModelNotReady.WithError(underlying)

	if newErr.Code != ErrModelNotReady.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrModelNotReady.Code)
	}
	if newErr.Kind != KindInference {
		t.Errorf("Kind = %v, want %v", newErr.Kind, KindInference)
	}
	if newErr.StatusCode != ErrModelNotReady.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrModelNotReady.StatusCode)
	}
	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
	if ErrModelNotReady.Err != nil {
		t.Errorf("WithError must not mutate the predefined error")
	}
}

func TestAppError_Is(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", ErrDecode.WithError(errors.New("bad header")))

	if !errors.Is(wrapped, ErrDecode) {
		t.Errorf("errors.Is(wrapped, ErrDecode) = false, want true")
	}
	if errors.Is(wrapped, ErrPreprocess) {
		t.Errorf("errors.Is(wrapped, ErrPreprocess) = true, want false")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As should match AppError")
	}
	if appErr.Kind != KindDecode {
		t.Errorf("Kind = %v, want %v", appErr.Kind, KindDecode)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		kind       ErrorKind
		code       string
		statusCode int
		client     bool
	}{
		{ErrInternal, KindInternal, "INTERNAL_ERROR", 500, false},
		{ErrTimeout, KindInternal, "TIMEOUT", 504, false},
		{ErrNotImage, KindInput, "INVALID_CONTENT_TYPE", 400, true},
		{ErrPayloadTooLarge, KindInput, "PAYLOAD_TOO_LARGE", 413, true},
		{ErrMissingImage, KindInput, "MISSING_IMAGE", 400, true},
		{ErrUnreadableUpload, KindInput, "UNREADABLE_UPLOAD", 400, true},
		{ErrRateLimitExceeded, KindInput, "RATE_LIMIT_EXCEEDED", 429, true},
		{ErrDecode, KindDecode, "DECODE_ERROR", 400, true},
		{ErrPreprocess, KindPreprocess, "PREPROCESS_ERROR", 400, true},
		{ErrModelNotReady, KindInference, "MODEL_NOT_READY", 503, false},
		{ErrInference, KindInference, "INFERENCE_ERROR", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
			if got := tt.err.IsClientError(); got != tt.client {
				t.Errorf("IsClientError() = %v, want %v", got, tt.client)
			}
		})
	}
}
