package preprocess

import "errors"

var (
	// ErrUnsupportedFormat indicates the bytes are not an image format we decode
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrCorruptImage indicates the bytes look like an image but fail to decode
	ErrCorruptImage = errors.New("corrupt image data")

	// ErrEmptyImage indicates a decoded image without pixels
	ErrEmptyImage = errors.New("image has no pixels")

	// ErrZeroArea indicates a crop or resize target that covers no pixels
	ErrZeroArea = errors.New("zero-area region")

	// ErrCropOutOfBounds indicates a crop box that leaves the image
	ErrCropOutOfBounds = errors.New("crop region outside image bounds")

	// ErrInvalidTargetSize indicates a non-positive tensor side
	ErrInvalidTargetSize = errors.New("invalid target size")
)
