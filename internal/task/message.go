package task

import (
	"Go_Share/internal/service"
	"context"
)

// FinalizeMessage asks a worker to reassemble a chunked upload and commit it.
type FinalizeMessage struct {
	TaskID     uint64                 `json:"task_id"`
	Attempt    int                    `json:"attempt"`
	UserID     uint64                 `json:"user_id"`
	Identifier string                 `json:"identifier"`
	Total      int64                  `json:"total"`
	Upload     service.PreparedUpload `json:"upload"`

	// set when the file is committed but the task was not yet marked completed
	CommittedFileID uint64 `json:"committed_file_id,omitempty"`
	CommittedURL    string `json:"committed_url,omitempty"`
}

// Dispatcher hands a finalize message to a worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg FinalizeMessage) error
}
