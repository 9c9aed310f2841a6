package blob

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Downscale shrinks JPEG and PNG images wider than maxWidth, keeping the
// aspect ratio. Other types and images that already fit come back unchanged.
func Downscale(data []byte, contentType string, maxWidth int) ([]byte, error) {
	var format imaging.Format
	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return data, nil
	}
	if maxWidth <= 0 {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if img.Bounds().Dx() <= maxWidth {
		return data, nil
	}

	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
