// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Body is the JSON error envelope every handler writes.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Fields  any    `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends an error envelope.
func Write(w http.ResponseWriter, status int, kind, msg string) {
	WriteJSON(w, status, Body{Error: kind, Message: msg})
}

// Handler is the errors feature handler.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, "not_found", "no such endpoint")
}

// MethodNotAllowed answers known routes hit with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported here")
}

// ErrorLogger logs unexpected failures and answers with a generic 500.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger wraps logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// HandleServerError logs err with request context and writes a 500. The
// client sees msg, never err.
func (e *ErrorLogger) HandleServerError(w http.ResponseWriter, r *http.Request, err error, msg string, fields ...zap.Field) {
	fields = append(fields,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	e.Log.Error(msg, fields...)
	Write(w, http.StatusInternalServerError, "internal", msg)
}
