package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/storage"
)

// Fixed 404 messages per entry kind.
const (
	msgIncomeNotFound  = "Ingreso no encontrado"
	msgExpenseNotFound = "Gasto no encontrado"
)

// JSONResponseBuilder collects status, headers and body and writes them
// together.
type JSONResponseBuilder struct {
	status  int
	header  http.Header
	payload any
	empty   bool
}

// NewJSONResponse starts a 200 response.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{status: http.StatusOK, header: http.Header{}}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.status = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.header.Set(name, value)
	return b
}

// JSON sets the value encoded as the body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// NoContent drops the body; used for 204.
func (b *JSONResponseBuilder) NoContent() *JSONResponseBuilder {
	b.status = http.StatusNoContent
	b.empty = true
	return b
}

// Attachment marks the body as a download named filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write encodes the payload first; if that fails the client gets a 500
// instead of a truncated body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if b.empty {
		w.WriteHeader(b.status)
		return
	}

	status := b.status
	body, err := json.Marshal(b.payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	dst.Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse is the {"error": message} body every failure uses.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// writeError maps err to a response: a missing id is a 404 with notFoundMsg,
// anything else, validation failures included, a 500 with the error text.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	logger := applog.FromContext(r.Context())
	switch {
	case errors.Is(err, storage.ErrNotFound) && notFoundMsg != "":
		logger.InfoContext(r.Context(), "Entry not found", applog.FieldPath, r.URL.Path, applog.FieldError, err)
		NotFoundError(notFoundMsg).Write(w)
	case core.IsValidationError(err):
		logger.WarnContext(r.Context(), "Validation failed", applog.FieldPath, r.URL.Path, applog.FieldError, err)
		InternalServerError(err.Error()).Write(w)
	default:
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldPath, r.URL.Path, applog.FieldError, err)
		InternalServerError(err.Error()).Write(w)
	}
}
