package web

// errors.go provides unified error responses for the API.
//
// Every error leaves the server as the same JSON shape:
//   - core errors go through core.MapError for message, action and code
//   - request validation errors carry a REQ code chosen by the handler
//
// The technical error is logged with the request id; only the mapped
// message reaches the client.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/settlement/internal/core"
	"github.com/JonMunkholm/settlement/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// respondError logs err and writes its mapped user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, r, statusCode, newErrorResponse(userMsg))
}

// writeError writes a request validation error that has no core error
// behind it.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message, action string) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"code", code,
	)

	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   message,
		Message: message,
		Action:  action,
		Code:    code,
	})
}

// statusFor picks the HTTP status for a batch-level error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyBatches):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
