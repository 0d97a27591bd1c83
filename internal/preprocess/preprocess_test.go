package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		data := encodePNG(t, solidImage(40, 30, color.NRGBA{R: 200, G: 100, B: 50, A: 255}))

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "image/png", decoded.MIMEType)
		assert.Equal(t, 40, decoded.Width())
		assert.Equal(t, 30, decoded.Height())
		assert.Equal(t, image.Point{}, decoded.Image.Bounds().Min)
	})

	t.Run("jpeg", func(t *testing.T) {
		data := encodeJPEG(t, solidImage(64, 48, color.NRGBA{R: 128, G: 128, B: 128, A: 255}))

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", decoded.MIMEType)
		assert.Equal(t, 64, decoded.Width())
		assert.Equal(t, 48, decoded.Height())
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Decode(nil)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("text is not an image", func(t *testing.T) {
		_, err := Decode([]byte("definitely not an image, just some plain text"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("truncated png", func(t *testing.T) {
		data := encodePNG(t, solidImage(40, 30, color.NRGBA{A: 255}))

		_, err := Decode(data[:len(data)/2])
		assert.ErrorIs(t, err, ErrCorruptImage)
	})
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		maxDim     int
		wantWidth  int
		wantHeight int
		resized    bool
	}{
		{"fits", 640, 480, 2048, 640, 480, false},
		{"exact limit", 2048, 2048, 2048, 2048, 2048, false},
		{"landscape", 4000, 3000, 2048, 2048, 1536, true},
		{"portrait", 1000, 4000, 2048, 512, 2048, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, tt.width, tt.height))

			out, resized, err := Downscale(img, tt.maxDim)
			require.NoError(t, err)
			assert.Equal(t, tt.resized, resized)
			assert.Equal(t, tt.wantWidth, out.Bounds().Dx())
			assert.Equal(t, tt.wantHeight, out.Bounds().Dy())
			if !tt.resized {
				assert.Same(t, img, out)
			}
		})
	}

	t.Run("sliver collapses to zero", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 5000, 1))

		_, _, err := Downscale(img, 2048)
		assert.ErrorIs(t, err, ErrZeroArea)
	})
}

func TestGrayscale(t *testing.T) {
	img := solidImage(8, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})

	gray := Grayscale(img)

	assert.Equal(t, image.Rect(0, 0, 8, 4), gray.Bounds())
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(7, 3).Y)
}

func TestNormalize_ShapeAndValues(t *testing.T) {
	img := solidImage(100, 80, color.NRGBA{R: 255, G: 0, B: 128, A: 255})

	tensor, err := Normalize(img, domain.BoundingBox{X: 10, Y: 10, Width: 50, Height: 50}, 16)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 16, 16}, tensor.Shape)
	assert.Len(t, tensor.Data, 3*16*16)
	assert.Equal(t, int64(3*16*16), tensor.Size())

	plane := 16 * 16
	want := []float32{
		(1.0 - 0.485) / 0.229,
		(0.0 - 0.456) / 0.224,
		(float32(128)/255.0 - 0.406) / 0.225,
	}
	for c := 0; c < 3; c++ {
		for i := 0; i < plane; i++ {
			assert.InDelta(t, want[c], tensor.Data[c*plane+i], 1e-5)
		}
	}
}

func TestNormalize_ChannelPlanarLayout(t *testing.T) {
	// Left half red, right half blue.
	img := solidImage(20, 20, color.NRGBA{B: 255, A: 255})
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	tensor, err := Normalize(img, domain.BoundingBox{Width: 20, Height: 20}, 20)
	require.NoError(t, err)

	plane := 20 * 20
	red := tensor.Data[0:plane]
	blue := tensor.Data[2*plane : 3*plane]

	// Sample away from the seam where linear filtering mixes columns.
	assert.Greater(t, red[5*20+2], red[5*20+17])
	assert.Greater(t, blue[5*20+17], blue[5*20+2])
}

func TestNormalize_Errors(t *testing.T) {
	img := solidImage(50, 50, color.NRGBA{A: 255})

	tests := []struct {
		name    string
		box     domain.BoundingBox
		size    int
		wantErr error
	}{
		{"zero width", domain.BoundingBox{Width: 0, Height: 10}, 16, ErrZeroArea},
		{"zero height", domain.BoundingBox{Width: 10, Height: 0}, 16, ErrZeroArea},
		{"out of bounds", domain.BoundingBox{X: 40, Y: 40, Width: 20, Height: 20}, 16, ErrCropOutOfBounds},
		{"negative origin", domain.BoundingBox{X: -1, Width: 10, Height: 10}, 16, ErrCropOutOfBounds},
		{"invalid size", domain.BoundingBox{Width: 10, Height: 10}, 0, ErrInvalidTargetSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(img, tt.box, tt.size)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
