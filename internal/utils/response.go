package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeValidation         = "validation_error"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeTokenExpired       = "token_expired"
	ErrCodeForbidden          = "forbidden"
	ErrCodeInternal           = "internal_server_error"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeRowVersionConflict = "row_version_conflict"
	ErrCodeUnavailable        = "service_unavailable"
)

// ErrorResponse is the body of every non-2xx response. Error carries the
// underlying cause; Stack is only filled when stacks are exposed.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
	Details any    `json:"details,omitempty"`
}

var exposeErrorStack atomic.Bool

// SetExposeErrorStack toggles stack traces in error bodies. Development only.
func SetExposeErrorStack(on bool) { exposeErrorStack.Store(on) }

// RespondErrorWithCode writes an ErrorResponse and logs it: 5xx at error
// level, everything else as a warning. cause, when given, is logged and
// echoed in the body.
func RespondErrorWithCode(w http.ResponseWriter, status int, code, message string, details any, cause ...error) {
	body := ErrorResponse{Code: code, Message: message, Details: details}
	entry := Logger.WithFields(logrus.Fields{"status": status, "code": code})

	if len(cause) > 0 && cause[0] != nil {
		err := cause[0]
		body.Error = err.Error()
		if exposeErrorStack.Load() {
			body.Stack = fmt.Sprintf("%+v", err)
		}
		entry = entry.WithError(err)
	}

	RespondWithJSON(w, status, body)

	if status >= http.StatusInternalServerError {
		entry.Error(message)
		return
	}
	entry.Warn(message)
}

// RespondWithJSON encodes payload with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Logger.WithError(err).Warn("write response body")
	}
}
