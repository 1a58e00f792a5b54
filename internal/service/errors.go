package service

import (
	"errors"

	"github.com/crm-content-api/internal/validation"
)

var (
	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")
	// ErrSlugExists is returned when the slug is already used in the project
	ErrSlugExists = errors.New("slug already exists")
	// ErrNotFound is returned when the article does not exist
	ErrNotFound = errors.New("article not found")
	// ErrAlreadyPublished is returned when publishing a published article
	ErrAlreadyPublished = errors.New("article already published")
	// ErrPermissionDenied is returned when the user may not act on the article
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationFailure carries field errors and matches ErrValidation
type ValidationFailure struct {
	Errors validation.Errors
}

func (e *ValidationFailure) Error() string {
	return ErrValidation.Error() + ": " + e.Errors.Error()
}

func (e *ValidationFailure) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string, value interface{}) error {
	return &ValidationFailure{Errors: validation.Errors{{Field: field, Message: message, Value: value}}}
}
