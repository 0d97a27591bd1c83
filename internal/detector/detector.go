// Package detector locates faces in grayscale images. Backends implement
// Detector; Locator reduces their output to the single most prominent face.
package detector

import (
	"context"
	"image"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// Detector finds zero or more face boxes in a single-channel image. Boxes are
// in pixel coordinates of img and must lie within its bounds.
type Detector interface {
	Detect(ctx context.Context, img *image.Gray) ([]domain.BoundingBox, error)

	// Name identifies the backend in logs
	Name() string
}

// Params are the detection parameters shared by every backend. Backends
// that cannot honor a parameter ignore it.
type Params struct {
	// ScaleFactor is the step between successive detection window sizes
	ScaleFactor float64

	// MinNeighbors is how many overlapping raw hits a face needs to be kept
	MinNeighbors int

	// MinSize is the smallest accepted face side in pixels
	MinSize int

	// Confidence is the minimum detector confidence in [0,1]
	Confidence float64
}

// DefaultParams mirrors the classic Haar cascade settings.
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      48,
		Confidence:   0.5,
	}
}

// None never finds a face. It is used when detection is disabled, so every
// image takes the center-crop path.
type None struct{}

// Detect implements Detector
func (None) Detect(context.Context, *image.Gray) ([]domain.BoundingBox, error) {
	return nil, nil
}

// Name implements Detector
func (None) Name() string { return "none" }
