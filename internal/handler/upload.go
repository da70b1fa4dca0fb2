package handler

import (
	"Go_Share/config"
	"Go_Share/internal/chunk"
	"Go_Share/internal/dto"
	"Go_Share/internal/repo"
	"Go_Share/internal/service"
	"Go_Share/internal/task"
	"Go_Share/model"
	"Go_Share/utils"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Locker is a mutual-exclusion lock held across the last-chunk handoff.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// UploadHandler serves the upload endpoints.
type UploadHandler struct {
	Finalizer *service.Finalizer
	Limiter   *service.RateLimiter
	Assembler *chunk.Assembler
	Queue     *task.Queue
	NewLock   func(key string) Locker
	Uploader  config.UploaderConfig
	Chunks    config.ChunksConfig
	Now       func() time.Time
}

func (h *UploadHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Upload handles POST /api/upload.
func (h *UploadHandler) Upload(c *gin.Context) {
	user, ok := utils.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrForbidden.Error()})
		return
	}
	ctx := c.Request.Context()
	chunked := parseChunkHeaders(c.Request.Header)

	if chunked.ContentRange == "" {
		if err := h.Limiter.Check(ctx, user); err != nil {
			writeError(c, err)
			return
		}
	}

	req, err := parseUploadHeaders(c.Request.Header, c.Request.Host, h.Uploader.DefaultFormat, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	if req.upload.FolderID != nil {
		if err := h.Finalizer.CheckFolder(ctx, user, *req.upload.FolderID); err != nil {
			writeError(c, err)
			return
		}
	}

	if chunked.ContentRange != "" && h.Chunks.Enabled {
		h.uploadChunk(c, user, req, chunked)
		return
	}
	h.uploadFiles(c, user, req)
}

func (h *UploadHandler) uploadFiles(c *gin.Context, user *model.User, req requestOptions) {
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, service.RequestError("no files received"))
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		writeError(c, service.RequestError("no files received"))
		return
	}

	resp := dto.UploadResponse{Files: make([]string, 0, len(files))}
	for i, fh := range files {
		res, err := h.finalizeOne(c.Request.Context(), user, i, fh, req.upload)
		if err != nil {
			writeError(c, err)
			return
		}
		resp.Files = append(resp.Files, res.URL)
		if res.RemovedGPS != nil {
			removed := *res.RemovedGPS
			if resp.RemovedGPS != nil {
				removed = removed && *resp.RemovedGPS
			}
			resp.RemovedGPS = &removed
		}
		if res.Prepared.AssumeAttempted {
			if res.Prepared.AssumedMimetype != "" {
				resp.AssumedMimetype = res.Prepared.AssumedMimetype
			} else {
				resp.AssumedMimetype = false
			}
		}
	}
	resp.ExpiresAt = req.upload.ExpiresAt
	resp.Folder = req.upload.FolderID
	if err := h.Limiter.Start(c.Request.Context(), user); err != nil {
		log.Printf("upload: start cooldown for user %d failed: %v", user.ID, err)
	}
	h.respond(c, req, resp.Files, resp)
}

func (h *UploadHandler) finalizeOne(ctx context.Context, user *model.User, index int, fh *multipart.FileHeader, opts service.UploadOptions) (*service.Result, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer f.Close()
	in := service.FileInput{
		Index:    index,
		Filename: fh.Filename,
		Mimetype: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
	}
	return h.Finalizer.Finalize(ctx, user, in, opts, f)
}

func (h *UploadHandler) uploadChunk(c *gin.Context, user *model.User, req requestOptions, hdr dto.ChunkHeaders) {
	ctx := c.Request.Context()
	start, end, total, err := chunk.ParseContentRange(hdr.ContentRange)
	if err != nil {
		writeError(c, err)
		return
	}
	if !chunk.ValidIdentifier(hdr.Identifier) {
		writeError(c, chunk.ErrInvalidIdentifier)
		return
	}
	if hdr.Filename == "" {
		writeError(c, service.RequestError("no filename"))
		return
	}
	if h.Chunks.MaxSize > 0 && end-start > h.Chunks.MaxSize {
		writeError(c, service.RequestError("chunk too big"))
		return
	}
	if total > h.Uploader.SizeLimit(user.Administrator) {
		writeError(c, &service.ValidationError{Index: 0, Reason: "size too big"})
		return
	}

	payload, err := readChunkBody(c, end-start)
	if err != nil {
		writeError(c, err)
		return
	}
	part := chunk.Part{
		UserID:     user.ID,
		Identifier: hdr.Identifier,
		Filename:   hdr.Filename,
		Mimetype:   hdr.Mimetype,
		Start:      start,
		End:        end,
		Total:      total,
		Last:       hdr.LastChunk,
	}
	last, err := h.Assembler.Append(ctx, part, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	if !last {
		c.JSON(http.StatusOK, dto.ChunkAckResponse{Success: true})
		return
	}

	lock := h.NewLock(repo.FinalizeLockKey(user.ID, hdr.Identifier))
	if err := lock.Lock(ctx); err != nil {
		writeError(c, err)
		return
	}
	defer func() {
		if err := lock.Unlock(context.Background()); err != nil {
			log.Printf("upload: unlock %s failed: %v", hdr.Identifier, err)
		}
	}()

	in := service.FileInput{Index: 0, Filename: hdr.Filename, Mimetype: hdr.Mimetype, Size: total}
	prepared, err := h.Finalizer.Prepare(ctx, user, in, req.upload)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			if cerr := h.Assembler.Cleanup(user.ID, hdr.Identifier); cerr != nil {
				log.Printf("upload: cleanup %s failed: %v", hdr.Identifier, cerr)
			}
		}
		writeError(c, err)
		return
	}
	if _, err := h.Queue.Submit(ctx, hdr.Identifier, total, prepared); err != nil {
		writeError(c, err)
		return
	}
	h.Assembler.Arena().Evict(user.ID, hdr.Identifier)

	files := []string{prepared.URL}
	h.respond(c, req, files, dto.PendingResponse{Pending: true, Files: files})
}

// readChunkBody accepts the chunk either as the multipart "file" field or as the raw body.
func readChunkBody(c *gin.Context, want int64) ([]byte, error) {
	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, service.RequestError("no files received")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open chunk: %w", err)
		}
		defer f.Close()
		r = f
	}
	// one extra byte so an oversized body is reported as a length mismatch
	return io.ReadAll(io.LimitReader(r, want+1))
}

func (h *UploadHandler) respond(c *gin.Context, req requestOptions, files []string, body interface{}) {
	if req.noJSON {
		c.String(http.StatusOK, strings.Join(files, ","))
		return
	}
	c.JSON(http.StatusOK, body)
}

// TaskStatus handles GET /api/upload/tasks/:identifier.
func (h *UploadHandler) TaskStatus(c *gin.Context) {
	user, ok := utils.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrForbidden.Error()})
		return
	}
	identifier := c.Param("identifier")
	t, err := h.Queue.Status(c.Request.Context(), user.ID, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TaskStatusResponse{
		Identifier: t.Identifier,
		Status:     t.Status,
		Files:      []string{t.URL},
		FileID:     t.FileID,
		Error:      t.ErrorMsg,
		RetryCount: t.RetryCount,
		FinishedAt: t.FinishedAt,
	})
}
