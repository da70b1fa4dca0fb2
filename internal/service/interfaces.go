package service

import (
	"Go_Share/model"
	"context"
	"time"
)

// MetadataStore is the persistence the finalizer needs.
type MetadataStore interface {
	NameExists(ctx context.Context, name string) (bool, error)
	CreateFile(ctx context.Context, file *model.File) error
	DeleteFile(ctx context.Context, id uint64) error
	CreateInvisible(ctx context.Context, inv *model.InvisibleFile) error
	FolderOwnedBy(ctx context.Context, folderID, userID uint64) (bool, error)
}

// RatelimitStore holds per-user cooldown deadlines.
type RatelimitStore interface {
	Get(ctx context.Context, userID uint64) (time.Time, bool, error)
	Set(ctx context.Context, userID uint64, until time.Time) error
	Clear(ctx context.Context, userID uint64) error
}

// MetadataStripper scrubs location metadata from a persisted blob.
type MetadataStripper interface {
	StripGPS(ctx context.Context, name, mimetype string) error
}
