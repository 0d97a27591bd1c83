// Package geometry computes the crop and resize regions used to turn an
// uploaded photo into classifier input. All functions are pure and clip their
// results to the image bounds instead of failing.
package geometry

import (
	"math"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// ComputeDownscale returns the dimensions after fitting height x width inside
// maxDim while preserving aspect ratio. Images already within maxDim are
// returned unchanged with scale 1.
func ComputeDownscale(height, width, maxDim int) (newHeight, newWidth int, scale float64) {
	if height <= maxDim && width <= maxDim {
		return height, width, 1
	}

	scale = math.Min(
		float64(maxDim)/float64(height),
		float64(maxDim)/float64(width),
	)

	newHeight = min(int(math.Floor(float64(height)*scale)), maxDim)
	newWidth = min(int(math.Floor(float64(width)*scale)), maxDim)

	return newHeight, newWidth, scale
}

// CenterCropBox returns the largest square centered in a height x width image.
func CenterCropBox(height, width int) domain.BoundingBox {
	side := min(height, width)
	cx, cy := width/2, height/2

	x := max(0, cx-side/2)
	y := max(0, cy-side/2)

	return domain.BoundingBox{
		X:      x,
		Y:      y,
		Width:  max(0, min(side, width-x)),
		Height: max(0, min(side, height-y)),
	}
}

// PaddedFaceBox grows face by floor(min(w, h) * paddingRatio) on every side
// and clips the result to the image. The origin is clamped first and the size
// second, so a face touching an edge keeps less than the full padding there.
func PaddedFaceBox(face domain.BoundingBox, imageHeight, imageWidth int, paddingRatio float64) domain.BoundingBox {
	padding := max(0, int(math.Floor(float64(min(face.Width, face.Height))*paddingRatio)))

	x := clamp(face.X-padding, 0, imageWidth)
	y := clamp(face.Y-padding, 0, imageHeight)

	width := clamp(face.Width+2*padding, 0, imageWidth-x)
	height := clamp(face.Height+2*padding, 0, imageHeight-y)

	return domain.BoundingBox{X: x, Y: y, Width: width, Height: height}
}

// ClipBox intersects box with a width x height image.
func ClipBox(box domain.BoundingBox, width, height int) domain.BoundingBox {
	x0 := clamp(box.X, 0, width)
	y0 := clamp(box.Y, 0, height)
	x1 := clamp(box.X+box.Width, x0, width)
	y1 := clamp(box.Y+box.Height, y0, height)

	return domain.BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
