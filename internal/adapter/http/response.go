package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fixboard/fixboard/internal/domain"
)

// Envelope is the uniform response body for the board API
type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Code    string      `json:"code,omitempty"`
}

// WriteJSON writes an envelope with the given HTTP status
func WriteJSON(w http.ResponseWriter, statusCode int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope)
}

// Success writes a successful envelope
func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, Envelope{Status: true, Message: message, Data: data})
}

// Fail writes a failed envelope with an error code
func Fail(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, Envelope{Status: false, Message: message, Code: code})
}

// FailFromError maps an engine error onto an HTTP status and envelope
func FailFromError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	message := err.Error()
	var engineErr *domain.EngineError
	if errors.As(err, &engineErr) {
		message = engineErr.Message
	}

	switch code {
	case domain.ErrCodeValidation:
		Fail(w, http.StatusUnprocessableEntity, message, string(code))
	case domain.ErrCodePrecondition:
		Fail(w, http.StatusPreconditionFailed, message, string(code))
	case domain.ErrCodeConflict:
		Fail(w, http.StatusConflict, message, string(code))
	case domain.ErrCodeNotFound:
		Fail(w, http.StatusNotFound, message, string(code))
	case domain.ErrCodeUnauthorized:
		Fail(w, http.StatusUnauthorized, message, string(code))
	case domain.ErrCodeBusy:
		Fail(w, http.StatusTooManyRequests, message, string(code))
	case domain.ErrCodeFetch:
		Fail(w, http.StatusBadGateway, message, string(code))
	default:
		Fail(w, http.StatusInternalServerError, message, "internal")
	}
}
