package dto

import "time"

// UploadResponse is returned after single-shot files are committed.
// AssumedMimetype is the resolved type, or false when resolution was
// attempted and failed.
type UploadResponse struct {
	Files           []string    `json:"files"`
	ExpiresAt       *time.Time  `json:"expiresAt,omitempty"`
	RemovedGPS      *bool       `json:"removed_gps,omitempty"`
	AssumedMimetype interface{} `json:"assumed_mimetype,omitempty"`
	Folder          *uint64     `json:"folder,omitempty"`
}

// PendingResponse is returned for the last chunk; the URL is final but the
// file becomes available once its task completes.
type PendingResponse struct {
	Pending bool     `json:"pending"`
	Files   []string `json:"files"`
}

// ChunkAckResponse acknowledges a non-final chunk.
type ChunkAckResponse struct {
	Success bool `json:"success"`
}

type TaskStatusResponse struct {
	Identifier string     `json:"identifier"`
	Status     string     `json:"status"`
	Files      []string   `json:"files"`
	FileID     *uint64    `json:"file_id,omitempty"`
	Error      string     `json:"error,omitempty"`
	RetryCount int        `json:"retry_count"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter *int64 `json:"retry_after,omitempty"`
}
