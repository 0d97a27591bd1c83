package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Reporter periodically logs a counter snapshot
type Reporter struct {
	recorder *Recorder
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

// NewReporter creates a new metrics reporter worker
func NewReporter(recorder *Recorder, logger *slog.Logger, interval time.Duration) *Reporter {
	if interval == 0 {
		interval = 1 * time.Minute
	}

	return &Reporter{
		recorder: recorder,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs the reporter until ctx is canceled or Stop is called
func (r *Reporter) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("metrics reporter started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("metrics reporter stopped")
			return
		case <-r.done:
			r.logger.Info("metrics reporter stopped")
			return
		case <-ticker.C:
			r.report()
		}
	}
}

// Stop gracefully shuts down the reporter
func (r *Reporter) Stop() {
	close(r.done)
}

func (r *Reporter) report() {
	s := r.recorder.Snapshot()

	r.logger.Info("pipeline metrics",
		"requests", s.Requests,
		"succeeded", s.Succeeded,
		"faces_detected", s.FacesDetected,
		"center_crop_fallbacks", s.CenterCropFallbacks,
		"detector_failures", s.DetectorFailures,
		"errors", s.Errors,
		"avg_inference_ms", s.AvgInferenceMS,
	)
}
