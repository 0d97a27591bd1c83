package domain

import (
	"fmt"
)

// ErrorKind groups errors by who is at fault and how the request ends.
type ErrorKind string

const (
	KindInput      ErrorKind = "input"
	KindDecode     ErrorKind = "decode"
	KindPreprocess ErrorKind = "preprocess"
	KindInference  ErrorKind = "inference"
	KindInternal   ErrorKind = "internal"
)

type AppError struct {
	Kind       ErrorKind `json:"kind"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Kind:       e.Kind,
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is matches AppErrors by code, so a wrapped copy produced by WithError
// still satisfies errors.Is against the predefined value.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsClientError reports whether the caller is at fault.
func (e *AppError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Kind:       KindInternal,
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrTimeout = &AppError{
		Kind:       KindInternal,
		Code:       "TIMEOUT",
		Message:    "Request took too long to process",
		StatusCode: 504,
	}

	// Input errors: the pipeline is never entered
	ErrNotImage = &AppError{
		Kind:       KindInput,
		Code:       "INVALID_CONTENT_TYPE",
		Message:    "File must be an image",
		StatusCode: 400,
	}

	ErrPayloadTooLarge = &AppError{
		Kind:       KindInput,
		Code:       "PAYLOAD_TOO_LARGE",
		Message:    "Image size exceeds the upload limit",
		StatusCode: 413,
	}

	ErrMissingImage = &AppError{
		Kind:       KindInput,
		Code:       "MISSING_IMAGE",
		Message:    "No image file provided, use 'file' as the form field name",
		StatusCode: 400,
	}

	ErrUnreadableUpload = &AppError{
		Kind:       KindInput,
		Code:       "UNREADABLE_UPLOAD",
		Message:    "Failed to read file",
		StatusCode: 400,
	}

	ErrRateLimitExceeded = &AppError{
		Kind:       KindInput,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Pipeline errors
	ErrDecode = &AppError{
		Kind:       KindDecode,
		Code:       "DECODE_ERROR",
		Message:    "Failed to decode image",
		StatusCode: 400,
	}

	ErrPreprocess = &AppError{
		Kind:       KindPreprocess,
		Code:       "PREPROCESS_ERROR",
		Message:    "Image preprocessing failed",
		StatusCode: 400,
	}

	ErrModelNotReady = &AppError{
		Kind:       KindInference,
		Code:       "MODEL_NOT_READY",
		Message:    "Emotion model is not loaded",
		StatusCode: 503,
	}

	ErrInference = &AppError{
		Kind:       KindInference,
		Code:       "INFERENCE_ERROR",
		Message:    "Internal server error during inference",
		StatusCode: 500,
	}
)
