package model

import "time"

const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskRetrying  = "retrying"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// UploadTask tracks the deferred finalize of a chunked upload.
type UploadTask struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID     uint64 `gorm:"column:user_id;not null;uniqueIndex:uk_task_user_identifier,priority:1" json:"user_id"`
	Identifier string `gorm:"column:identifier;size:128;not null;uniqueIndex:uk_task_user_identifier,priority:2" json:"identifier"`

	FileName string `gorm:"column:file_name;type:varchar(255);not null" json:"file_name"`
	URL      string `gorm:"column:url;type:text;not null" json:"url"`

	Status     string     `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	ErrorMsg   string     `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`
	RetryCount int        `gorm:"column:retry_count;default:0" json:"retry_count"`
	FileID     *uint64    `gorm:"column:file_id" json:"file_id,omitempty"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (UploadTask) TableName() string {
	return "upload_task"
}
