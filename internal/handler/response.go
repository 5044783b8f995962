// Package handler turns HTTP requests into service calls and service results
// into JSON responses.
//
// Every error body has the same shape:
//
//	{"error": "not_found", "message": "album not found with id abc123"}
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input, for validation and upload errors
	ID      string `json:"id,omitempty"`    // record left behind by a half-finished write
}

// MessageResponse is the body of writes that return no record.
type MessageResponse struct {
	Message string `json:"message"`
}

// Responder writes JSON responses. It is shared by all handlers.
type Responder struct {
	Logger *slog.Logger
	// ExposeErrors puts the text of unexpected errors into 500 responses.
	// It is off in production, where those read "Internal Server Error".
	ExposeErrors bool
}

// JSON writes data with the given status. Headers go out before the body,
// so an encoding failure can only be logged.
func (rs Responder) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.Logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// Error maps err to a status code and error kind and writes it.
func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	resp := ErrorResponse{Error: kind}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
		if errors.Is(err, apperror.ErrIntegrity) {
			resp.ID = appErr.ID
		}
	} else {
		resp.Message = "Internal Server Error"
		if rs.ExposeErrors {
			resp.Message = err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		rs.Logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
	rs.JSON(w, status, resp)
}

// classify checks ErrIntegrity first: an integrity error caused by a missing
// album also matches ErrNotFound.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrIntegrity):
		return http.StatusInternalServerError, "integrity_inconsistency"
	case errors.Is(err, apperror.ErrMediaUpload):
		return http.StatusInternalServerError, "media_upload_error"
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a JSON body of at most 1 MiB into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
