package imageproc

import (
	"bytes"
	"errors"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

var (
	ErrNoMetadata  = errors.New("no gps metadata")
	ErrMalformed   = errors.New("malformed jpeg metadata")
	ErrUnsupported = errors.New("gps removal not supported for this format")
)

// tag id of the GPS IFD pointer in IFD0
const tagGPSPointer uint16 = 0x8825

// StripGPS returns a copy of the JPEG with the GPS IFD removed from its EXIF block.
// The other EXIF tags and the image data are kept.
func StripGPS(data []byte) (out []byte, err error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, ErrMalformed
	}
	// the exif builders panic on some corrupt inputs
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	parsed, err := jpegstructure.NewJpegMediaParser().ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	sl, ok := parsed.(*jpegstructure.SegmentList)
	if !ok {
		return nil, ErrMalformed
	}
	if _, _, err := sl.FindExif(); err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, ErrNoMetadata
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	n, err := rootIb.DeleteAll(tagGPSPointer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n == 0 {
		return nil, ErrNoMetadata
	}
	if err := sl.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("rewrite exif: %w", err)
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("write jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
