package detector

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/geometry"
)

// FailureHook is called with every detector error the Locator swallows.
type FailureHook func(err error)

// Locator picks the most prominent face reported by a Detector.
type Locator struct {
	detector Detector
	logger   *slog.Logger
	onFail   FailureHook
}

// LocatorOption configures a Locator
type LocatorOption func(*Locator)

// WithFailureHook registers a callback for swallowed detector errors
func WithFailureHook(hook FailureHook) LocatorOption {
	return func(l *Locator) {
		l.onFail = hook
	}
}

// NewLocator wraps d. A nil detector behaves like None.
func NewLocator(d Detector, logger *slog.Logger, opts ...LocatorOption) *Locator {
	if d == nil {
		d = None{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Locator{
		detector: d,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Locate returns the largest face by area, first seen winning ties, and
// false when there is none. Detector failures, panics included, are logged
// and reported as no face; face location is a hint, never a requirement.
func (l *Locator) Locate(ctx context.Context, img *image.Gray) (box domain.BoundingBox, found bool) {
	if img == nil || img.Bounds().Empty() {
		return domain.BoundingBox{}, false
	}

	boxes, err := l.detect(ctx, img)
	if err != nil {
		l.logger.Warn("face detection failed, falling back to center crop",
			"detector", l.detector.Name(),
			"error", err,
		)
		if l.onFail != nil {
			l.onFail(err)
		}
		return domain.BoundingBox{}, false
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	for _, b := range boxes {
		b = geometry.ClipBox(b, width, height)
		if b.Empty() {
			continue
		}
		if !found || b.Area() > box.Area() {
			box = b
			found = true
		}
	}

	return box, found
}

// Detector returns the wrapped backend
func (l *Locator) Detector() Detector {
	return l.detector
}

func (l *Locator) detect(ctx context.Context, img *image.Gray) (boxes []domain.BoundingBox, err error) {
	defer func() {
		if r := recover(); r != nil {
			boxes = nil
			err = fmt.Errorf("%s detector panicked: %v", l.detector.Name(), r)
		}
	}()

	return l.detector.Detect(ctx, img)
}
