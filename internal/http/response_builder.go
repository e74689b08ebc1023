// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for constructing JSON responses,
// keeping status codes, headers and error bodies consistent across handlers.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/services"
)

// Error kinds returned in the "error" field of failed responses. Import
// failures use the importer kinds instead.
const (
	ErrKindBadRequest     = "bad_request"
	ErrKindInvalidMonth   = "invalid_month"
	ErrKindInvalidYear    = "invalid_year"
	ErrKindInvalidAmount  = "invalid_amount"
	ErrKindInvalidIncome  = "invalid_income"
	ErrKindInvalidExpense = "invalid_expense"
	ErrKindInvalidScope   = "invalid_scope"
	ErrKindInvalidSort    = "invalid_sort"
	ErrKindReadOnly       = "read_only"
	ErrKindRateLimited    = "rate_limited"
	ErrKindNotReady       = "not_ready"
	ErrKindInternal       = "internal"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Line    int    `json:"line,omitempty"`
	Month   string `json:"month,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	raw        []byte
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets a value to be JSON encoded.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Raw sets a preformatted body with its content type, for exports.
func (b *JSONResponseBuilder) Raw(contentType string, content []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = content
	b.body = nil
	return b
}

// Attachment marks the response as a download named filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	payload := b.raw
	if b.body != nil {
		data, err := json.Marshal(b.body)
		if err != nil {
			b.statusCode = http.StatusInternalServerError
			data = []byte(`{"error":"internal"}`)
		}
		payload = append(data, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: kind, Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(kind, message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, kind, message)
}

// InternalServerError creates a 500 response. The cause is logged, never sent.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, ErrKindInternal, "")
}

// ImportErrorResponse maps an import validation failure to 422.
func ImportErrorResponse(ie *importer.Error) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(ErrorBody{Error: string(ie.Kind), Line: ie.Line, Month: ie.Month})
}

// ErrorFor maps a service error to its response. ok is false for unexpected
// errors, which callers log before answering 500.
func ErrorFor(err error) (b *JSONResponseBuilder, ok bool) {
	if ie, isImport := importer.AsError(err); isImport {
		return ImportErrorResponse(ie), true
	}
	switch {
	case errors.Is(err, services.ErrReadOnly):
		return ErrorResponse(http.StatusForbidden, ErrKindReadOnly, err.Error()), true
	case errors.Is(err, core.ErrInvalidMonthKey):
		return BadRequestError(ErrKindInvalidMonth, err.Error()), true
	case errors.Is(err, core.ErrInvalidYear):
		return BadRequestError(ErrKindInvalidYear, err.Error()), true
	case errors.Is(err, services.ErrInvalidIncome):
		return BadRequestError(ErrKindInvalidIncome, err.Error()), true
	case errors.Is(err, services.ErrInvalidExpense):
		return BadRequestError(ErrKindInvalidExpense, err.Error()), true
	case errors.Is(err, services.ErrInvalidAmount):
		return BadRequestError(ErrKindInvalidAmount, err.Error()), true
	}
	return InternalServerError(), false
}
