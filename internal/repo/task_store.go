package repo

import (
	"Go_Share/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrTaskInProgress is returned when a finalize for the same upload is still pending or running.
var ErrTaskInProgress = errors.New("finalize already in progress")

// TaskStore persists deferred finalize tasks.
type TaskStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db, now: time.Now}
}

// CreateTask inserts a pending task. A finished task with the same identifier is replaced,
// an unfinished one yields ErrTaskInProgress.
func (s *TaskStore) CreateTask(ctx context.Context, task *model.UploadTask) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.UploadTask
		err := tx.Where("user_id = ? AND identifier = ?", task.UserID, task.Identifier).First(&existing).Error
		switch {
		case err == nil:
			if existing.Status != model.TaskCompleted && existing.Status != model.TaskFailed {
				return ErrTaskInProgress
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		task.Status = model.TaskPending
		if err := tx.Create(task).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrTaskInProgress
			}
			return err
		}
		return nil
	})
}

// GetTask loads a task by its id.
func (s *TaskStore) GetTask(ctx context.Context, id uint64) (*model.UploadTask, error) {
	var task model.UploadTask
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindTask loads the task of a user's upload identifier.
func (s *TaskStore) FindTask(ctx context.Context, userID uint64, identifier string) (*model.UploadTask, error) {
	var task model.UploadTask
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND identifier = ?", userID, identifier).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkRunning moves a pending or retrying task to running. It reports false when
// another delivery already claimed the task.
func (s *TaskStore) MarkRunning(ctx context.Context, id uint64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.UploadTask{}).
		Where("id = ? AND status IN ?", id, []string{model.TaskPending, model.TaskRetrying}).
		Updates(map[string]interface{}{
			"status":    model.TaskRunning,
			"error_msg": "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *TaskStore) MarkRetrying(ctx context.Context, id uint64, attempt int, cause error) error {
	return s.db.WithContext(ctx).Model(&model.UploadTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.TaskRetrying,
			"error_msg":   cause.Error(),
			"retry_count": attempt,
		}).Error
}

// MarkCompleted stores the created file and its final URL.
func (s *TaskStore) MarkCompleted(ctx context.Context, id, fileID uint64, url string) error {
	finishedAt := s.now()
	return s.db.WithContext(ctx).Model(&model.UploadTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.TaskCompleted,
			"file_id":     fileID,
			"url":         url,
			"error_msg":   "",
			"finished_at": &finishedAt,
		}).Error
}

func (s *TaskStore) MarkFailed(ctx context.Context, id uint64, cause error) error {
	finishedAt := s.now()
	return s.db.WithContext(ctx).Model(&model.UploadTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.TaskFailed,
			"error_msg":   cause.Error(),
			"finished_at": &finishedAt,
		}).Error
}
