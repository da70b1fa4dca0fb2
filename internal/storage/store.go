package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
)

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	Name        string
	Size        int64
	ContentType string
}

// Store abstracts the blob datasource holding uploaded file bytes, keyed by public file name.
type Store interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	Remove(ctx context.Context, name string) error
}

// Default is the main blob store instance.
var Default Store
