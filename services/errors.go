package services

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNoAvailability = "NO_AVAILABILITY"
	CodeNotFound       = "NOT_FOUND"
	CodeCannotCancel   = "CANNOT_CANCEL"
	CodeConflict       = "CONFLICT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternal       = "INTERNAL_ERROR"
)

const (
	MsgNoAvailability = "No tables available at that time"
	MsgCannotCancel   = "This booking cannot be cancelled"
	MsgPastVisit      = "Cannot book a table in the past"
)

// Sentinels carried in AppError.Err so callers can use errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrNoAvailability     = errors.New("no availability")
	ErrCannotCancel       = errors.New("cannot cancel")
	ErrPastVisit          = errors.New("visit is in the past")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSourceNotFound     = errors.New("import source not found")
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
		Err:        ErrInvalidInput,
	}
}

// PastVisit is a validation failure, never an availability one.
func PastVisit() *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    MsgPastVisit,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"visit_date": MsgPastVisit},
		Err:        ErrPastVisit,
	}
}

func NoAvailability() *AppError {
	return &AppError{
		Code:       CodeNoAvailability,
		Message:    MsgNoAvailability,
		HTTPStatus: http.StatusConflict,
		Err:        ErrNoAvailability,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

func CannotCancel() *AppError {
	return &AppError{
		Code:       CodeCannotCancel,
		Message:    MsgCannotCancel,
		HTTPStatus: http.StatusConflict,
		Err:        ErrCannotCancel,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Err:        ErrConflict,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        ErrInvalidCredentials,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsAppError never returns nil for a non-nil err; unknown errors become Internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
