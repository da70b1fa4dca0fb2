package handler

import (
	"Go_Share/internal/chunk"
	"Go_Share/internal/dto"
	"Go_Share/internal/repo"
	"Go_Share/internal/service"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error to a status and an {"error": ...} body.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var rerr *service.RateLimitedError
	switch {
	case errors.As(err, &rerr):
		retry := rerr.Remaining.Milliseconds()
		c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: rerr.Error(), RetryAfter: &retry})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, chunk.ErrInvalidRange),
		errors.Is(err, chunk.ErrInvalidIdentifier),
		errors.Is(err, chunk.ErrLengthMismatch),
		errors.Is(err, chunk.ErrTotalMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repo.ErrLockBusy):
		c.JSON(http.StatusBadRequest, gin.H{"error": "finalize already in progress"})
	case errors.Is(err, repo.ErrTaskInProgress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload already being finalized"})
	default:
		log.Printf("upload: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
