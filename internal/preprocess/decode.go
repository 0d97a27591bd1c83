package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// Extra decoders beyond the jpeg/png/gif/bmp/tiff set imaging registers.
	_ "golang.org/x/image/webp"
)

// Decoded is a freshly decoded upload. Image is anchored at the origin and
// owned by the request that decoded it.
type Decoded struct {
	Image    *image.NRGBA
	MIMEType string
}

// Width returns the pixel width
func (d *Decoded) Width() int { return d.Image.Bounds().Dx() }

// Height returns the pixel height
func (d *Decoded) Height() int { return d.Image.Bounds().Dy() }

// Decode sniffs and decodes image bytes, applying the EXIF orientation tag
// so phone photos come out upright.
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode: %w", ErrEmptyImage)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("decode: detected %s: %w", mtype.String(), ErrUnsupportedFormat)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if err == image.ErrFormat {
			return nil, fmt.Errorf("decode %s: %w", mtype.String(), ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode %s: %w: %v", mtype.String(), ErrCorruptImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("decode %s: %w", mtype.String(), ErrEmptyImage)
	}

	return &Decoded{
		Image:    imaging.Clone(img),
		MIMEType: mtype.String(),
	}, nil
}
