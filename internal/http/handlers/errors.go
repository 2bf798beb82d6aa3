// Package handlers defines the HTTP-layer error taxonomy used across all API
// endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them
// programmatically, so renaming one is a breaking API change. Generic codes
// mirror HTTP status semantics; domain codes cover business outcomes a bare
// status cannot convey (validation_failed names the first offending field in
// the message, quota_exceeded distinguishes the image ceiling from other
// unprocessable cases).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bazaargah/go-bazaar-backend/internal/http/middleware"
	"github.com/bazaargah/go-bazaar-backend/internal/services"
)

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeRateLimited     = "too_many_requests"
	ErrCodeInternal        = "internal_error"

	// Domain-specific:
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeQuotaExceeded    = "quota_exceeded"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failService translates a service-layer error into the HTTP envelope.
// The mapping is exhaustive over the service sentinels; anything unknown is
// an internal error with a generic message (the detail goes to the log via
// fail, never to the client).
func failService(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidationFailed, ve.Error())
	case errors.Is(err, services.ErrNotAdmin),
		errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed")
	case errors.Is(err, services.ErrListingNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
	case errors.Is(err, services.ErrCategoryNotFound):
		fail(c, http.StatusBadRequest, ErrCodeValidationFailed, "category_id: unknown category")
	case errors.Is(err, services.ErrProfileNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
	case errors.Is(err, services.ErrSlugConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, "slug already in use")
	case errors.Is(err, services.ErrNotPending):
		fail(c, http.StatusConflict, ErrCodeConflict, "listing is not pending")
	case errors.Is(err, services.ErrImageQuotaExceeded):
		fail(c, http.StatusUnprocessableEntity, ErrCodeQuotaExceeded, "image limit reached")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
