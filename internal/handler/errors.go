package handler

import (
	"errors"
	"net/http"

	"casetrack/internal/model"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to stable HTTP status codes. Unrecognized
// errors are treated as storage failures and surfaced as retryable 500s.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrRatingOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden), errors.Is(err, model.ErrUserSuspended):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrUnknownUnit):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrUnitInactive),
		errors.Is(err, model.ErrCaseNotCompleted),
		errors.Is(err, model.ErrAlreadyRated),
		errors.Is(err, model.ErrAlreadyExists):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
