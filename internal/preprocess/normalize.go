package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// Channels is the fixed channel count of the classifier input.
const Channels = 3

// ImageNet statistics the classifier was trained with.
var (
	channelMean = [Channels]float32{0.485, 0.456, 0.406}
	channelStd  = [Channels]float32{0.229, 0.224, 0.225}
)

// Tensor is a dense float32 array in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Size returns the element count implied by Shape.
func (t *Tensor) Size() int64 {
	size := int64(1)
	for _, d := range t.Shape {
		size *= d
	}
	return size
}

// Normalize crops img to crop, resizes the region to size x size, and lays it
// out as a [1, 3, size, size] tensor of ImageNet-standardized RGB values.
func Normalize(img *image.NRGBA, crop domain.BoundingBox, size int) (*Tensor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("normalize: size %d: %w", size, ErrInvalidTargetSize)
	}
	if crop.Empty() {
		return nil, fmt.Errorf("normalize: crop %+v: %w", crop, ErrZeroArea)
	}

	bounds := img.Bounds()
	if !crop.Within(bounds.Dx(), bounds.Dy()) {
		return nil, fmt.Errorf("normalize: crop %+v in %dx%d: %w", crop, bounds.Dx(), bounds.Dy(), ErrCropOutOfBounds)
	}

	region := imaging.Crop(img, crop.Rect().Add(bounds.Min))
	resized := imaging.Resize(region, size, size, imaging.Linear)

	// NRGBA stores channels in R, G, B, A order, so no channel swap is needed
	// and alpha is dropped.
	plane := size * size
	data := make([]float32, Channels*plane)

	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+size*4]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+Channels]
			offset := y*size + x
			for c := 0; c < Channels; c++ {
				v := float32(px[c]) / 255.0
				data[c*plane+offset] = (v - channelMean[c]) / channelStd[c]
			}
		}
	}

	return &Tensor{
		Shape: []int64{1, Channels, int64(size), int64(size)},
		Data:  data,
	}, nil
}
