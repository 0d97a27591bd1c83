package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// Detector implements detector.Detector using the DeepFace API
type Detector struct {
	client *Client
	params detector.Params
}

var _ detector.Detector = (*Detector)(nil)

// New creates a new DeepFace detector
func New(config Config, params detector.Params) *Detector {
	return &Detector{
		client: NewClient(config),
		params: params,
	}
}

// Name implements detector.Detector
func (d *Detector) Name() string { return "deepface" }

// Detect posts img as base64 PNG. With enforce_detection off DeepFace answers
// a faceless image with one region spanning the whole frame, which is
// reported here as no face.
func (d *Detector) Detect(ctx context.Context, img *image.Gray) ([]domain.BoundingBox, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	resp, err := d.client.Analyze(ctx, base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	boxes := make([]domain.BoundingBox, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := result.Region
		if area.X == 0 && area.Y == 0 && area.W >= width && area.H >= height {
			continue
		}
		if result.FaceConfidence > 0 && result.FaceConfidence < d.params.Confidence {
			continue
		}
		if area.W < d.params.MinSize || area.H < d.params.MinSize {
			continue
		}

		boxes = append(boxes, domain.BoundingBox{
			X:      area.X,
			Y:      area.Y,
			Width:  area.W,
			Height: area.H,
		})
	}

	return boxes, nil
}
