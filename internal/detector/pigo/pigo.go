// Package pigo detects faces with the pure-Go pigo cascade classifier.
package pigo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/detector"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

const (
	// shiftFactor is the sliding window step relative to window size
	shiftFactor = 0.1
	// iouThreshold groups raw hits belonging to the same face
	iouThreshold = 0.2
	// qualityScale maps a [0,1] confidence onto pigo's raw score range
	qualityScale = 10.0
)

// ErrEmptyCascade indicates a cascade file without content
var ErrEmptyCascade = errors.New("empty cascade file")

// Config configures the cascade detector
type Config struct {
	// CascadePath is the facefinder cascade file
	CascadePath string

	detector.Params
}

// Detector runs a pigo cascade. The unpacked classifier is read-only after
// construction and safe for concurrent use.
type Detector struct {
	classifier *pigo.Pigo
	params     detector.Params
	minQuality float32
}

var _ detector.Detector = (*Detector)(nil)

// New loads the cascade at cfg.CascadePath.
func New(cfg Config) (*Detector, error) {
	data, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file %s: %w", cfg.CascadePath, err)
	}

	return NewFromCascade(data, cfg.Params)
}

// NewFromCascade unpacks an in-memory cascade.
func NewFromCascade(cascade []byte, params detector.Params) (*Detector, error) {
	if len(cascade) == 0 {
		return nil, ErrEmptyCascade
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	if params.ScaleFactor <= 1 {
		params.ScaleFactor = detector.DefaultParams().ScaleFactor
	}

	return &Detector{
		classifier: classifier,
		params:     params,
		minQuality: float32(params.Confidence * qualityScale),
	}, nil
}

// Name implements detector.Detector
func (d *Detector) Name() string { return "pigo" }

// Detect implements detector.Detector
func (d *Detector) Detect(ctx context.Context, img *image.Gray) ([]domain.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	minSize := max(d.params.MinSize, 1)
	maxSize := min(rows, cols)
	if maxSize < minSize {
		return nil, nil
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: packedPixels(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	raw := d.classifier.RunCascade(params, 0.0)
	raw = filterQuality(raw, d.minQuality)
	if len(raw) == 0 {
		return nil, nil
	}

	clusters := d.classifier.ClusterDetections(raw, iouThreshold)
	clusters = filterNeighbors(clusters, raw, d.params.MinNeighbors)

	boxes := make([]domain.BoundingBox, 0, len(clusters))
	for _, c := range clusters {
		boxes = append(boxes, toBox(c))
	}

	return boxes, nil
}

// packedPixels returns the gray pixels without row padding.
func packedPixels(img *image.Gray) []uint8 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if img.Stride == width && bounds.Min == (image.Point{}) {
		return img.Pix[:width*height]
	}

	pixels := make([]uint8, 0, width*height)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := img.PixOffset(bounds.Min.X, y)
		pixels = append(pixels, img.Pix[start:start+width]...)
	}
	return pixels
}

func filterQuality(dets []pigo.Detection, minQuality float32) []pigo.Detection {
	kept := dets[:0]
	for _, det := range dets {
		if det.Q >= minQuality {
			kept = append(kept, det)
		}
	}
	return kept
}

// filterNeighbors keeps clusters supported by at least minNeighbors raw hits.
func filterNeighbors(clusters, raw []pigo.Detection, minNeighbors int) []pigo.Detection {
	if minNeighbors <= 1 {
		return clusters
	}

	kept := make([]pigo.Detection, 0, len(clusters))
	for _, c := range clusters {
		neighbors := 0
		for _, r := range raw {
			if iou(c, r) > iouThreshold {
				neighbors++
			}
		}
		if neighbors >= minNeighbors {
			kept = append(kept, c)
		}
	}
	return kept
}

// iou computes intersection over union of two square detections.
func iou(a, b pigo.Detection) float64 {
	ax0, ay0 := a.Col-a.Scale/2, a.Row-a.Scale/2
	bx0, by0 := b.Col-b.Scale/2, b.Row-b.Scale/2

	overlapW := min(ax0+a.Scale, bx0+b.Scale) - max(ax0, bx0)
	overlapH := min(ay0+a.Scale, by0+b.Scale) - max(ay0, by0)
	if overlapW <= 0 || overlapH <= 0 {
		return 0
	}

	inter := float64(overlapW * overlapH)
	union := float64(a.Scale*a.Scale+b.Scale*b.Scale) - inter
	return inter / union
}

// toBox converts a center/scale detection to a top-left box.
func toBox(det pigo.Detection) domain.BoundingBox {
	return domain.BoundingBox{
		X:      det.Col - det.Scale/2,
		Y:      det.Row - det.Scale/2,
		Width:  det.Scale,
		Height: det.Scale,
	}
}
