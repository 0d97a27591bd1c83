package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
)

// MockEmotionService is a mock implementation of EmotionService
type MockEmotionService struct {
	mock.Mock
}

func (m *MockEmotionService) Analyze(ctx context.Context, data []byte) (*domain.EmotionResult, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmotionResult), args.Error(1)
}

func (m *MockEmotionService) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Helper to create multipart request
func createMultipartRequest(field string, content []byte, contentType string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if content != nil {
		// Create part with custom Content-Type header
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="upload.jpg"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		_, _ = part.Write(content)
	} else {
		_ = writer.WriteField("note", "no file")
	}

	_ = writer.Close()
	return body, writer.FormDataContentType(), nil
}

func createTestApp(handler *EmotionHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
	app.Post("/infer/mood", handler.InferMood)
	return app
}

func happyResult() *domain.EmotionResult {
	return &domain.EmotionResult{
		PredictedEmotion: "happy",
		Confidence:       0.9,
		EmotionProbabilities: map[string]float64{
			"happy": 0.9, "sad": 0.1,
		},
		FaceDetected: true,
		FaceInfo:     &domain.BoundingBox{X: 10, Y: 20, Width: 50, Height: 60},
	}
}

func TestEmotionHandler_InferMood(t *testing.T) {
	imageBytes := []byte("fake-jpeg-bytes")

	tests := []struct {
		name        string
		field       string
		content     []byte
		contentType string
		setupMock   func(*MockEmotionService)
		wantStatus  int
		wantCode    string
	}{
		{
			name:        "success",
			field:       "file",
			content:     imageBytes,
			contentType: "image/jpeg",
			setupMock: func(m *MockEmotionService) {
				m.On("Analyze", mock.Anything, imageBytes).Return(happyResult(), nil)
			},
			wantStatus: 200,
		},
		{
			name:        "legacy image field",
			field:       "image",
			content:     imageBytes,
			contentType: "image/png",
			setupMock: func(m *MockEmotionService) {
				m.On("Analyze", mock.Anything, imageBytes).Return(happyResult(), nil)
			},
			wantStatus: 200,
		},
		{
			name:       "missing file",
			field:      "file",
			setupMock:  func(m *MockEmotionService) {},
			wantStatus: 400,
			wantCode:   "MISSING_IMAGE",
		},
		{
			name:        "not an image content type",
			field:       "file",
			content:     []byte("%PDF-1.4"),
			contentType: "application/pdf",
			setupMock:   func(m *MockEmotionService) {},
			wantStatus:  400,
			wantCode:    "INVALID_CONTENT_TYPE",
		},
		{
			name:        "empty file",
			field:       "file",
			content:     []byte{},
			contentType: "image/jpeg",
			setupMock:   func(m *MockEmotionService) {},
			wantStatus:  400,
			wantCode:    "UNREADABLE_UPLOAD",
		},
		{
			name:        "too large",
			field:       "file",
			content:     bytes.Repeat([]byte{0xff}, 65),
			contentType: "image/jpeg",
			setupMock:   func(m *MockEmotionService) {},
			wantStatus:  413,
			wantCode:    "PAYLOAD_TOO_LARGE",
		},
		{
			name:        "decode error from pipeline",
			field:       "file",
			content:     imageBytes,
			contentType: "image/jpeg",
			setupMock: func(m *MockEmotionService) {
				m.On("Analyze", mock.Anything, imageBytes).
					Return(nil, domain.ErrDecode.WithError(errors.New("unknown format")))
			},
			wantStatus: 400,
			wantCode:   "DECODE_ERROR",
		},
		{
			name:        "model not ready",
			field:       "file",
			content:     imageBytes,
			contentType: "image/jpeg",
			setupMock: func(m *MockEmotionService) {
				m.On("Analyze", mock.Anything, imageBytes).Return(nil, domain.ErrModelNotReady)
			},
			wantStatus: 503,
			wantCode:   "MODEL_NOT_READY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockEmotionService)
			tt.setupMock(svc)
			recorder := metrics.NewRecorder()

			app := createTestApp(NewEmotionHandler(svc, 64, recorder, testLogger()))

			body, contentType, err := createMultipartRequest(tt.field, tt.content, tt.contentType)
			require.NoError(t, err)

			req := httptest.NewRequest("POST", "/infer/mood", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			respBody, _ := io.ReadAll(resp.Body)
			if tt.wantCode == "" {
				var result domain.EmotionResult
				require.NoError(t, json.Unmarshal(respBody, &result))
				assert.Equal(t, "happy", result.PredictedEmotion)
				assert.True(t, result.FaceDetected)
				require.NotNil(t, result.FaceInfo)
				assert.Equal(t, 50, result.FaceInfo.Width)
			} else {
				var out map[string]map[string]string
				require.NoError(t, json.Unmarshal(respBody, &out))
				assert.Equal(t, tt.wantCode, out["error"]["code"])
			}

			svc.AssertExpectations(t)
		})
	}
}

func TestEmotionHandler_InputErrorsAreCounted(t *testing.T) {
	svc := new(MockEmotionService)
	recorder := metrics.NewRecorder()
	app := createTestApp(NewEmotionHandler(svc, 64, recorder, testLogger()))

	body, contentType, err := createMultipartRequest("file", []byte("text"), "text/plain")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/infer/mood", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	assert.EqualValues(t, 1, recorder.Snapshot().Errors["input"])
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestEmotionHandler_OmitsFaceInfoWithoutFace(t *testing.T) {
	imageBytes := []byte("blank")
	svc := new(MockEmotionService)
	svc.On("Analyze", mock.Anything, imageBytes).Return(&domain.EmotionResult{
		PredictedEmotion:     "neutral",
		Confidence:           0.4,
		EmotionProbabilities: map[string]float64{"neutral": 0.4, "sad": 0.6},
	}, nil)

	app := createTestApp(NewEmotionHandler(svc, 64, nil, testLogger()))

	body, contentType, err := createMultipartRequest("file", imageBytes, "image/png")
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/infer/mood", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, false, raw["face_detected"])
	assert.NotContains(t, raw, "face_info")
}
