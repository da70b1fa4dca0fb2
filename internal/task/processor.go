package task

import (
	"Go_Share/config"
	"Go_Share/internal/chunk"
	"Go_Share/internal/service"
	"Go_Share/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
)

// Store is the task persistence the processor needs.
type Store interface {
	CreateTask(ctx context.Context, task *model.UploadTask) error
	GetTask(ctx context.Context, id uint64) (*model.UploadTask, error)
	FindTask(ctx context.Context, userID uint64, identifier string) (*model.UploadTask, error)
	MarkRunning(ctx context.Context, id uint64) (bool, error)
	MarkRetrying(ctx context.Context, id uint64, attempt int, cause error) error
	MarkCompleted(ctx context.Context, id, fileID uint64, url string) error
	MarkFailed(ctx context.Context, id uint64, cause error) error
}

// Committer persists a prepared upload.
type Committer interface {
	Commit(ctx context.Context, p *service.PreparedUpload, content io.Reader, size int64) (*service.Result, error)
}

// Processor runs finalize messages: reassemble, commit, record the outcome.
type Processor struct {
	tasks     Store
	assembler *chunk.Assembler
	committer Committer
	retryMax  int
	delays    []time.Duration
}

func NewProcessor(tasks Store, assembler *chunk.Assembler, committer Committer, cfg config.FinalizeConfig) *Processor {
	return &Processor{
		tasks:     tasks,
		assembler: assembler,
		committer: committer,
		retryMax:  cfg.RetryMax,
		delays:    cfg.RetryDelays,
	}
}

// Process executes one attempt. A message whose task was already claimed or
// finished is a no-op, so redelivery never creates a second record.
func (p *Processor) Process(ctx context.Context, msg FinalizeMessage) error {
	task, err := p.tasks.GetTask(ctx, msg.TaskID)
	if err != nil {
		return err
	}
	if task.Status == model.TaskCompleted || task.Status == model.TaskFailed {
		return nil
	}
	if msg.CommittedFileID != 0 {
		// an earlier attempt committed the file; only the task status is missing
		if err := p.tasks.MarkCompleted(ctx, task.ID, msg.CommittedFileID, msg.CommittedURL); err != nil {
			return &CompletionError{FileID: msg.CommittedFileID, URL: msg.CommittedURL, Err: err}
		}
		p.cleanup(msg)
		return nil
	}
	claimed, err := p.tasks.MarkRunning(ctx, task.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	path, size, err := p.assembler.Reassemble(ctx, msg.UserID, msg.Identifier, msg.Total)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open assembled file: %w", err)
	}
	res, err := p.committer.Commit(ctx, &msg.Upload, f, size)
	_ = f.Close()
	if err != nil {
		return err
	}

	if err := p.tasks.MarkCompleted(ctx, task.ID, res.File.ID, res.URL); err != nil {
		log.Printf("finalize task %d: mark completed failed: %v", task.ID, err)
		return &CompletionError{FileID: res.File.ID, URL: res.URL, Err: err}
	}
	p.cleanup(msg)
	return nil
}

// CompletionError reports a committed file whose task could not be marked completed.
// Settling it schedules an attempt that only records the completion.
type CompletionError struct {
	FileID uint64
	URL    string
	Err    error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("record completion of file %d: %v", e.FileID, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Permanent reports errors that a retry cannot fix.
func Permanent(err error) bool {
	var reassembly *chunk.ReassemblyError
	var validation *service.ValidationError
	return errors.As(err, &reassembly) ||
		errors.As(err, &validation) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

// Settle records a failed attempt. When it returns retry=true the caller must
// redeliver msg (with the returned Attempt) after delay; otherwise the task is
// marked failed and its chunks removed.
func (p *Processor) Settle(ctx context.Context, msg FinalizeMessage, procErr error) (next FinalizeMessage, delay time.Duration, retry bool, err error) {
	next = msg
	next.Attempt = msg.Attempt + 1
	var done *CompletionError
	if errors.As(procErr, &done) {
		next.CommittedFileID = done.FileID
		next.CommittedURL = done.URL
	}
	if Permanent(procErr) || p.retryMax <= 0 || next.Attempt > p.retryMax {
		return msg, 0, false, p.Fail(ctx, msg, procErr)
	}
	if err := p.tasks.MarkRetrying(ctx, msg.TaskID, next.Attempt, procErr); err != nil {
		return msg, 0, false, err
	}
	return next, pickRetryDelay(next.Attempt, p.delays), true, nil
}

// Fail marks the task failed and removes its temp files.
func (p *Processor) Fail(ctx context.Context, msg FinalizeMessage, cause error) error {
	err := p.tasks.MarkFailed(ctx, msg.TaskID, cause)
	p.cleanup(msg)
	return err
}

func (p *Processor) cleanup(msg FinalizeMessage) {
	if err := p.assembler.Cleanup(msg.UserID, msg.Identifier); err != nil {
		log.Printf("finalize task %d: cleanup failed: %v", msg.TaskID, err)
	}
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
