// Package http provides the JSON API server and handlers.
//
// This file implements a builder for consistent JSON responses: every body
// is an envelope with either a data or an error member.
package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"saldo/internal/core"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the data member of the envelope.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Error sets the error member of the envelope.
func (b *ResponseBuilder) Error(code, message string) *ResponseBuilder {
	b.body.Error = &apiError{Code: code, Message: message}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	if b.body.Data == nil && b.body.Error == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).Error("bad_request", message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusUnprocessableEntity).Error("invalid_input", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusNotFound).Error("not_found", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusInternalServerError).Error("internal", message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods).
		Error("method_not_allowed", "method not allowed")
}

// domainErrors are validation failures that map to 422.
var domainErrors = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrEmptyDescription,
	core.ErrEmptyCategory,
	core.ErrInvalidStatus,
	core.ErrInvalidStartDay,
	core.ErrInvalidDayOfMonth,
	core.ErrInvalidPeriodKey,
	core.ErrSelfTransfer,
	core.ErrEmptyAccountID,
}

// ErrorResponseFor maps an error to the right JSON error response: domain
// validation failures become 422, missing rows 404, everything else 500
// with the detail kept out of the body.
func ErrorResponseFor(err error) *ResponseBuilder {
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return UnprocessableEntityError(err.Error())
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError("resource not found")
	}
	return InternalServerError("internal error")
}
