package utils

import (
	"errors"
	"net/http"
)

// Sentinel causes carried inside AppError.Err so callers can errors.Is on them.
var (
	ErrUnitNumberExists   = errors.New("unit_number_exists")
	ErrOccupantNotFound   = errors.New("occupant_not_found")
	ErrRowVersionConflict = errors.New("row_version_conflict")
	ErrOccupancyMismatch  = errors.New("occupancy_mismatch")
)

// AppError is what services return when the failure has a public meaning:
// a status, a stable code and a message safe to show the client.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(msg string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeValidation, Message: msg, Err: err}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Code: ErrCodeNotFound, Message: msg}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Code: ErrCodeInternal, Message: msg, Err: err}
}

// HandleAppError writes err as an error response. Anything that is not an
// AppError is a bug and goes out as a generic 500.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError("An unexpected error occurred", err)
	}
	RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
}
