// Package apperror defines the application's error taxonomy.
//
// Every domain error is an *AppError that wraps one of the sentinel errors
// below. Callers test the kind with errors.Is and read the human-readable
// text with errors.As:
//
//	if errors.Is(err, apperror.ErrNotFound) { ... }
//
// HTTP handlers translate the sentinel into a status code; the service and
// repository layers never see HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMediaUpload marks a failure of the media host (local disk, HDFS).
	ErrMediaUpload = errors.New("media upload failed")

	// ErrIntegrity marks a detected but unhealed album/song inconsistency,
	// e.g. a song that was persisted but could not be linked to its album.
	ErrIntegrity = errors.New("integrity inconsistency")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable error message
	Field   string // optional: field causing the error
	ID      string // optional: id of the record left behind (integrity errors)
	cause   error  // optional: underlying failure
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause, so
// errors.Is(err, ErrIntegrity) and errors.Is(err, ErrNotFound) can both hold
// for an integrity error caused by a missing album.
func (e *AppError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
		ID:      id,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
		ID:      id,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller is not authenticated at all (401).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// MediaUploadFailed wraps a failure of the media host for the named file.
func MediaUploadFailed(file string, err error) *AppError {
	return &AppError{
		Err:     ErrMediaUpload,
		Message: fmt.Sprintf("error uploading %s", file),
		Field:   file,
		cause:   err,
	}
}

// IntegrityInconsistency reports that a multi-step write stopped half way.
// id names the record that was written before the failure.
func IntegrityInconsistency(id, message string, err error) *AppError {
	return &AppError{
		Err:     ErrIntegrity,
		Message: message,
		ID:      id,
		cause:   err,
	}
}
