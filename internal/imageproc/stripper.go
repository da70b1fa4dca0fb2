package imageproc

import (
	"Go_Share/internal/storage"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// Stripper removes GPS metadata from persisted JPEG blobs.
type Stripper struct {
	store storage.Store
}

func NewStripper(store storage.Store) *Stripper {
	return &Stripper{store: store}
}

// StripGPS reads the blob, strips its GPS block and saves it back under the same name.
// It returns ErrNoMetadata when the image carries no GPS data and ErrUnsupported
// for images other than JPEG.
func (s *Stripper) StripGPS(ctx context.Context, name, mimetype string) error {
	switch strings.ToLower(mimetype) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
	default:
		return ErrUnsupported
	}
	rc, _, err := s.store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}
	stripped, err := StripGPS(data)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, name, bytes.NewReader(stripped), int64(len(stripped)), mimetype); err != nil {
		return fmt.Errorf("save stripped blob: %w", err)
	}
	return nil
}
