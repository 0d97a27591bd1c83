package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/geometry"
)

// Downscale shrinks img so neither side exceeds maxDim. It returns the input
// untouched, and false, when the image already fits.
func Downscale(img *image.NRGBA, maxDim int) (*image.NRGBA, bool, error) {
	bounds := img.Bounds()
	height, width := bounds.Dy(), bounds.Dx()

	newHeight, newWidth, _ := geometry.ComputeDownscale(height, width, maxDim)
	if newHeight == height && newWidth == width {
		return img, false, nil
	}

	// imaging.Resize treats a zero side as "keep aspect ratio", so a sliver
	// that floors to zero must be rejected here.
	if newHeight <= 0 || newWidth <= 0 {
		return nil, false, fmt.Errorf("downscale %dx%d to %dx%d: %w", width, height, newWidth, newHeight, ErrZeroArea)
	}

	return imaging.Resize(img, newWidth, newHeight, imaging.Linear), true, nil
}

// Grayscale derives the single-channel copy used for face location, weighting
// channels 0.299/0.587/0.114.
func Grayscale(img image.Image) *image.Gray {
	src := imaging.Grayscale(img)
	bounds := src.Bounds()

	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+bounds.Dx()*4]
		dstRow := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		for x := range dstRow {
			dstRow[x] = srcRow[x*4]
		}
	}

	return gray
}
