package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	jpegQuality  = 90
)

// Detector implements detector.Detector using AWS Rekognition
type Detector struct {
	api    API
	params detector.Params
}

var _ detector.Detector = (*Detector)(nil)

// New creates a detector using the AWS default credential chain
func New(ctx context.Context, cfg Config, params detector.Params) (*Detector, error) {
	api, err := NewAPI(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return NewWithAPI(api, params), nil
}

// NewWithAPI creates a detector over an existing client
func NewWithAPI(api API, params detector.Params) *Detector {
	return &Detector{
		api:    api,
		params: params,
	}
}

// Name implements detector.Detector
func (d *Detector) Name() string { return "rekognition" }

// Detect sends img as JPEG and converts the ratio boxes Rekognition returns
// back to pixels. Faces below the confidence or size thresholds are dropped.
func (d *Detector) Detect(ctx context.Context, img *image.Gray) ([]domain.BoundingBox, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if buf.Len() > maxImageSize {
		return nil, fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, buf.Len(), maxImageSize)
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: buf.Bytes(),
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := d.api.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", parseAPIError(err))
	}

	width := float64(img.Bounds().Dx())
	height := float64(img.Bounds().Dy())
	minConfidence := float32(d.params.Confidence * 100)

	boxes := make([]domain.BoundingBox, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		if detail.Confidence != nil && *detail.Confidence < minConfidence {
			continue
		}

		box := toPixels(detail.BoundingBox, width, height)
		if box.Width < d.params.MinSize || box.Height < d.params.MinSize {
			continue
		}

		boxes = append(boxes, box)
	}

	return boxes, nil
}

// toPixels converts a Rekognition ratio box to pixel coordinates
func toPixels(bb *types.BoundingBox, width, height float64) domain.BoundingBox {
	ratio := func(v *float32) float64 {
		if v == nil {
			return 0
		}
		return float64(*v)
	}

	return domain.BoundingBox{
		X:      int(ratio(bb.Left) * width),
		Y:      int(ratio(bb.Top) * height),
		Width:  int(ratio(bb.Width) * width),
		Height: int(ratio(bb.Height) * height),
	}
}
