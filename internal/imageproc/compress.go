package imageproc

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Compress decodes an image, applies its EXIF orientation and re-encodes it as
// JPEG at the given quality percent (clamped to 1..100).
func Compress(data []byte, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
