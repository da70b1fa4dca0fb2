package task

import (
	"Go_Share/internal/service"
	"Go_Share/model"
	"context"
	"fmt"
)

// Queue turns a prepared last chunk into a persisted task and hands it to a worker.
type Queue struct {
	tasks      Store
	dispatcher Dispatcher
	processor  *Processor
}

func NewQueue(tasks Store, dispatcher Dispatcher, processor *Processor) *Queue {
	return &Queue{tasks: tasks, dispatcher: dispatcher, processor: processor}
}

// Submit creates the pending task and dispatches it. The returned task is the
// promise the client polls.
func (q *Queue) Submit(ctx context.Context, identifier string, total int64, upload *service.PreparedUpload) (*model.UploadTask, error) {
	task := &model.UploadTask{
		UserID:     upload.UserID,
		Identifier: identifier,
		FileName:   upload.Name,
		URL:        upload.URL,
	}
	if err := q.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	msg := FinalizeMessage{
		TaskID:     task.ID,
		UserID:     upload.UserID,
		Identifier: identifier,
		Total:      total,
		Upload:     *upload,
	}
	if err := q.dispatcher.Dispatch(ctx, msg); err != nil {
		_ = q.processor.Fail(context.Background(), msg, err)
		return nil, fmt.Errorf("dispatch finalize: %w", err)
	}
	return task, nil
}

// Status returns the task of a user's upload identifier.
func (q *Queue) Status(ctx context.Context, userID uint64, identifier string) (*model.UploadTask, error) {
	return q.tasks.FindTask(ctx, userID, identifier)
}
