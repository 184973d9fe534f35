package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"shelf/contacts"
	"shelf/internal/validation"
	"shelf/store"
)

// ErrorType represents different categories of application errors
type ErrorType int

const (
	ValidationError ErrorType = iota
	NotFoundError
	ConflictError
	StorageError
	InternalError
)

// AppError represents application-specific errors with context
type AppError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Err     error  // Original error
	Message string // User-friendly message
	Code    int    // HTTP status code
}

func (e *AppError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string for logging
func (et ErrorType) String() string {
	switch et {
	case ValidationError:
		return "validation"
	case NotFoundError:
		return "not_found"
	case ConflictError:
		return "conflict"
	case StorageError:
		return "storage"
	default:
		return "internal"
	}
}

// NewValidationError creates a new validation error
func NewValidationError(op string, err error) *AppError {
	return &AppError{
		Type:    ValidationError,
		Op:      op,
		Err:     err,
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(op string, err error) *AppError {
	return &AppError{
		Type:    NotFoundError,
		Op:      op,
		Err:     err,
		Message: err.Error(),
		Code:    http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(op string, err error) *AppError {
	return &AppError{
		Type:    ConflictError,
		Op:      op,
		Err:     err,
		Message: err.Error(),
		Code:    http.StatusConflict,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(op string, err error) *AppError {
	return &AppError{
		Type:    StorageError,
		Op:      op,
		Err:     err,
		Message: "Storage operation failed",
		Code:    http.StatusInternalServerError,
	}
}

// Classify maps an arbitrary error onto an AppError with the right HTTP
// status. Store constraint violations become conflicts, invalid input becomes
// a bad request, everything else is a storage failure. The handler layer is
// the only place errors are turned into user-facing responses.
func Classify(op string, err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *validation.ValidationError
	if errors.As(err, &vErr) {
		return NewValidationError(op, err)
	}
	switch {
	case errors.Is(err, store.ErrInvalidArgument), errors.Is(err, store.ErrMissingKey):
		return NewValidationError(op, err)
	case errors.Is(err, store.ErrKeyExists), errors.Is(err, store.ErrUniqueConstraint), errors.Is(err, store.ErrVersionConflict):
		return NewConflictError(op, err)
	case errors.Is(err, contacts.ErrNotFound):
		return NewNotFoundError(op, err)
	case errors.Is(err, store.ErrNoSuchStore), errors.Is(err, store.ErrNoSuchIndex):
		return NewNotFoundError(op, err)
	default:
		return NewStorageError(op, err)
	}
}

// LogError logs an AppError with appropriate context
func LogError(logger *slog.Logger, err *AppError) {
	logger.Error(err.Message,
		slog.String("type", err.Type.String()),
		slog.String("operation", err.Op),
		slog.Int("code", err.Code),
		slog.Any("error", err.Err),
	)
}

// ErrorResponse is the JSON body sent for failed requests
type ErrorResponse struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HandleHTTPError classifies the error, logs it, and writes a JSON response
func HandleHTTPError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	appErr := Classify(op, err)
	LogError(logger, appErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	if encodeErr := json.NewEncoder(w).Encode(ErrorResponse{
		Type:    appErr.Type.String(),
		Message: appErr.Message,
	}); encodeErr != nil {
		logger.Error("Failed to encode error response", slog.Any("error", encodeErr))
	}
}
