package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/services"
	"memorial-storefront/internal/supabase"
	"memorial-storefront/internal/validation"
	"memorial-storefront/internal/wizard"
)

// statusFor maps domain errors onto HTTP status codes. Anything unknown is a
// server error, and so is any failure inside submission whatever it wraps.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrSubmissionFailed):
		return http.StatusInternalServerError
	case errors.Is(err, validation.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrSessionNotFound),
		errors.Is(err, wizard.ErrCartItemNotFound),
		errors.Is(err, wizard.ErrPhotoNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, supabase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrSubmissionInFlight),
		errors.Is(err, wizard.ErrAlreadySubmitted),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrNotAtReview),
		errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, wizard.ErrStepNotBindable),
		errors.Is(err, wizard.ErrInvalidDraft),
		errors.Is(err, wizard.ErrInvalidOption),
		errors.Is(err, wizard.ErrConflictingText),
		errors.Is(err, services.ErrProductNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server errors are logged
// and answered with the generic message only.
func respondError(c *gin.Context, err error, generic string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error(generic)
		c.JSON(status, models.ErrorResponse{Error: generic})
		return
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, models.ValidationErrorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
		return
	}

	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}
