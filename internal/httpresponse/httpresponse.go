// Package httpresponse writes JSON payloads and maps core error kinds onto
// HTTP status codes.
package httpresponse

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const internalErrorMessage = "internal server error"

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// JSON writes payload with the given status code.
func JSON(response http.ResponseWriter, status int, payload any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}

// StatusOf returns the HTTP status for an error kind. Unknown errors map to
// 500.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an error envelope. The message of unanticipated errors
// is replaced with a generic one so storage details never reach the caller.
func Error(response http.ResponseWriter, err error) {
	status := StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.Errorln("unhandled error: ", zap.Error(err))
		message = internalErrorMessage
	}

	JSON(response, status, ErrorBody{Error: ErrorDetail{Message: message, Status: status}})
}

// Message writes an error envelope with an explicit status and message.
func Message(response http.ResponseWriter, status int, message string) {
	JSON(response, status, ErrorBody{Error: ErrorDetail{Message: message, Status: status}})
}
