// Package metrics keeps in-process pipeline counters.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

var kinds = []domain.ErrorKind{
	domain.KindInput,
	domain.KindDecode,
	domain.KindPreprocess,
	domain.KindInference,
	domain.KindInternal,
}

// Recorder counts pipeline outcomes. All methods are safe for concurrent use
// and a nil *Recorder ignores every call.
type Recorder struct {
	startedAt time.Time

	requests         atomic.Int64
	succeeded        atomic.Int64
	facesDetected    atomic.Int64
	centerCrops      atomic.Int64
	detectorFailures atomic.Int64
	downscaled       atomic.Int64

	inferenceCount atomic.Int64
	inferenceNanos atomic.Int64
	pipelineNanos  atomic.Int64

	errors map[domain.ErrorKind]*atomic.Int64
}

// NewRecorder creates a Recorder with every error kind pre-registered
func NewRecorder() *Recorder {
	r := &Recorder{
		startedAt: time.Now(),
		errors:    make(map[domain.ErrorKind]*atomic.Int64, len(kinds)),
	}
	for _, k := range kinds {
		r.errors[k] = new(atomic.Int64)
	}
	return r
}

// RequestStarted counts a pipeline run
func (r *Recorder) RequestStarted() {
	if r == nil {
		return
	}
	r.requests.Add(1)
}

// RequestSucceeded records a completed run and its wall time
func (r *Recorder) RequestSucceeded(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.succeeded.Add(1)
	r.pipelineNanos.Add(int64(elapsed))
}

// RequestFailed counts a failed run by error kind
func (r *Recorder) RequestFailed(kind domain.ErrorKind) {
	if r == nil {
		return
	}
	counter, ok := r.errors[kind]
	if !ok {
		counter = r.errors[domain.KindInternal]
	}
	counter.Add(1)
}

// FaceDetected counts a run that classified a located face
func (r *Recorder) FaceDetected() {
	if r == nil {
		return
	}
	r.facesDetected.Add(1)
}

// CenterCropFallback counts a run that classified the center crop
func (r *Recorder) CenterCropFallback() {
	if r == nil {
		return
	}
	r.centerCrops.Add(1)
}

// DetectorFailure counts a swallowed detector error
func (r *Recorder) DetectorFailure(error) {
	if r == nil {
		return
	}
	r.detectorFailures.Add(1)
}

// Downscaled counts an image shrunk before processing
func (r *Recorder) Downscaled() {
	if r == nil {
		return
	}
	r.downscaled.Add(1)
}

// Inference records one classifier call
func (r *Recorder) Inference(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.inferenceCount.Add(1)
	r.inferenceNanos.Add(int64(elapsed))
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	UptimeSeconds       float64          `json:"uptime_seconds"`
	Requests            int64            `json:"requests"`
	Succeeded           int64            `json:"succeeded"`
	FacesDetected       int64            `json:"faces_detected"`
	CenterCropFallbacks int64            `json:"center_crop_fallbacks"`
	DetectorFailures    int64            `json:"detector_failures"`
	Downscaled          int64            `json:"downscaled"`
	Errors              map[string]int64 `json:"errors"`
	Inferences          int64            `json:"inferences"`
	AvgInferenceMS      float64          `json:"avg_inference_ms"`
	AvgPipelineMS       float64          `json:"avg_pipeline_ms"`
}

// Snapshot returns the current counter values
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{Errors: map[string]int64{}}
	}

	s := Snapshot{
		UptimeSeconds:       time.Since(r.startedAt).Seconds(),
		Requests:            r.requests.Load(),
		Succeeded:           r.succeeded.Load(),
		FacesDetected:       r.facesDetected.Load(),
		CenterCropFallbacks: r.centerCrops.Load(),
		DetectorFailures:    r.detectorFailures.Load(),
		Downscaled:          r.downscaled.Load(),
		Errors:              make(map[string]int64, len(r.errors)),
		Inferences:          r.inferenceCount.Load(),
	}

	for kind, counter := range r.errors {
		s.Errors[string(kind)] = counter.Load()
	}
	if s.Inferences > 0 {
		s.AvgInferenceMS = float64(r.inferenceNanos.Load()) / float64(s.Inferences) / float64(time.Millisecond)
	}
	if s.Succeeded > 0 {
		s.AvgPipelineMS = float64(r.pipelineNanos.Load()) / float64(s.Succeeded) / float64(time.Millisecond)
	}

	return s
}
