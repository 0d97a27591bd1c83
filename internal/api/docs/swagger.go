package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// MoodResponse represents a classified upload
type MoodResponse struct {
	PredictedEmotion     string             `json:"predicted_emotion" example:"happy"`
	Confidence           float64            `json:"confidence" example:"0.87"`
	EmotionProbabilities map[string]float64 `json:"emotion_probabilities"`
	FaceDetected         bool               `json:"face_detected" example:"true"`
	FaceInfo             *FaceInfo          `json:"face_info,omitempty"`
}

// FaceInfo is the detected face box in processing coordinates
type FaceInfo struct {
	X      int `json:"x" example:"120"`
	Y      int `json:"y" example:"80"`
	Width  int `json:"width" example:"210"`
	Height int `json:"height" example:"210"`
}

// StreamFrame is one reply on the mood stream
type StreamFrame struct {
	Seq       uint64        `json:"seq" example:"1"`
	Result    *MoodResponse `json:"result,omitempty"`
	Error     *ErrorBody    `json:"error,omitempty"`
	Timestamp string        `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Kind    string `json:"kind" example:"input"`
	Code    string `json:"code" example:"INVALID_CONTENT_TYPE"`
	Message string `json:"message" example:"File must be an image"`
}

// HealthResponse represents liveness and readiness bodies
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service,omitempty" example:"mood-detection-service"`
}

// MetricsResponse mirrors the pipeline counters snapshot
type MetricsResponse struct {
	UptimeSeconds       float64          `json:"uptime_seconds" example:"3600"`
	Requests            int64            `json:"requests" example:"1200"`
	Succeeded           int64            `json:"succeeded" example:"1150"`
	FacesDetected       int64            `json:"faces_detected" example:"1010"`
	CenterCropFallbacks int64            `json:"center_crop_fallbacks" example:"140"`
	DetectorFailures    int64            `json:"detector_failures" example:"0"`
	Downscaled          int64            `json:"downscaled" example:"320"`
	Errors              map[string]int64 `json:"errors"`
	Inferences          int64            `json:"inferences" example:"1150"`
	AvgInferenceMS      float64          `json:"avg_inference_ms" example:"18.4"`
	AvgPipelineMS       float64          `json:"avg_pipeline_ms" example:"42.1"`
}

func errorResponse(kind, code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Kind: kind, Code: code, Message: message}}
}

func NewSwagger(host string) *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Mood Detection API",
		Version:     "v1.0.0",
		Description: "Classifies the facial emotion of the most prominent face in an uploaded image",
		Host:        host,
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /infer/mood - Classify emotion
		endpoint.New(
			endpoint.POST,
			"/infer/mood",
			endpoint.WithTags("Inference"),
			endpoint.WithSummary("Classify the emotion in an image"),
			endpoint.WithDescription("Accepts a multipart upload in the 'file' field ('image' is also accepted). The largest detected face is classified; without a face the center square of the image is used and face_info is omitted."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MoodResponse{}, "200", "Emotion classified successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorResponse("input", "INVALID_CONTENT_TYPE", "File must be an image"), "400", "Bad Request"),
				response.New(errorResponse("decode", "DECODE_ERROR", "Failed to decode image"), "400", "Bad Request"),
				response.New(errorResponse("input", "PAYLOAD_TOO_LARGE", "Image size exceeds the upload limit"), "413", "Payload Too Large"),
				response.New(errorResponse("input", "RATE_LIMIT_EXCEEDED", "Rate limit exceeded, please try again later"), "429", "Too Many Requests"),
				response.New(errorResponse("inference", "INFERENCE_ERROR", "Internal server error during inference"), "500", "Internal Server Error"),
				response.New(errorResponse("inference", "MODEL_NOT_READY", "Emotion model is not loaded"), "503", "Service Unavailable"),
				response.New(errorResponse("internal", "TIMEOUT", "Request took too long to process"), "504", "Gateway Timeout"),
			}),
		),

		// GET /stream/mood - WebSocket stream
		endpoint.New(
			endpoint.GET,
			"/stream/mood",
			endpoint.WithTags("Inference"),
			endpoint.WithSummary("Stream images over WebSocket"),
			endpoint.WithDescription("Upgrades to a WebSocket. Each binary message is one image; each reply is a text message {seq, result | error, timestamp} in arrival order."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StreamFrame{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorResponse("input", "HTTP_ERROR", "Upgrade Required"), "426", "Upgrade Required"),
			}),
		),

		// GET /health - Liveness
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is running"),
			}),
		),

		// GET /ready - Readiness
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Returns 503 until the emotion model has been loaded"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Model loaded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "not_ready"}, "503", "Model not loaded"),
			}),
		),

		// GET /metrics - Counters
		endpoint.New(
			endpoint.GET,
			"/metrics",
			endpoint.WithTags("Observability"),
			endpoint.WithSummary("Pipeline counters"),
			endpoint.WithDescription("Request, detection, fallback and latency counters since process start"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MetricsResponse{}, "200", "Current counters"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
