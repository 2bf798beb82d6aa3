// Package services defines the business logic for listings, moderation,
// search, media attachments, and profiles. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Listing-related errors.
var (
	// ErrListingNotFound indicates that the requested listing does not exist
	// or is not visible to the current caller.
	ErrListingNotFound = errors.New("listing not found")

	// ErrCategoryNotFound is returned when a draft references a category id
	// that does not resolve.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrSlugConflict is returned when the derived slug collides with an
	// existing listing. Callers may retry; a new random suffix is derived on
	// every attempt.
	ErrSlugConflict = errors.New("slug already exists")

	// ErrNotOwner is returned when a caller attempts to mutate a listing
	// they do not own.
	ErrNotOwner = errors.New("listing does not belong to caller")

	// ErrNotPending is returned when a lifecycle or moderation transition
	// requires the pending status and the listing has already left it.
	ErrNotPending = errors.New("listing is not pending")
)

// Moderation-related errors.
var (
	// ErrNotAdmin indicates the caller holds no admin role assignment and
	// may not moderate listings or view the admin dashboard.
	ErrNotAdmin = errors.New("caller is not an admin")
)

// Media-related errors.
var (
	// ErrImageQuotaExceeded is returned when an attachment call would push a
	// listing past the per-listing image ceiling.
	ErrImageQuotaExceeded = errors.New("image quota exceeded")
)

// Profile-related errors.
var (
	// ErrProfileNotFound indicates the profile row for the user id does not
	// exist yet.
	ErrProfileNotFound = errors.New("profile not found")
)

// ValidationError reports the first failing field of a malformed input.
// It is recoverable: the caller fixes the named field and retries.
type ValidationError struct {
	// Field is the JSON name of the first field that failed validation.
	Field string
	// Message describes the violated constraint.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// invalid is a shorthand constructor used by the validators in this package.
func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
