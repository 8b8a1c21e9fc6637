// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses and the single
// place where service errors are mapped to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"famfin/internal/auth"
	"famfin/internal/core"
	"famfin/internal/finance"
	"famfin/internal/log"
	"famfin/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
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

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter. 204 responses
// never carry a body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent || b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Success        bool     `json:"success"`
	Error          string   `json:"error"`
	MinimumPayment *float64 `json:"minimumPayment,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError creates a 401 response asking for a bearer token.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).
		Header("WWW-Authenticate", `Bearer realm="famfin"`)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictError creates a 409 Conflict error response.
func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// InsufficientPaymentResponse reports a payoff payment below the first
// month of interest. It is a 200: the request was valid, the plan is not.
func InsufficientPaymentResponse(e *finance.InsufficientPaymentError) *JSONResponseBuilder {
	minimum := e.MinimumPayment
	return NewJSONResponse().Body(errorBody{
		Error:          e.Error(),
		MinimumPayment: &minimum,
	})
}

// errorResponseFor maps a service error to its response.
func errorResponseFor(err error) *JSONResponseBuilder {
	var insufficient *finance.InsufficientPaymentError
	switch {
	case errors.As(err, &insufficient):
		return InsufficientPaymentResponse(insufficient)
	case errors.Is(err, core.ErrValidation), errors.Is(err, finance.ErrInvalidArgument):
		return BadRequestError(err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return UnauthorizedError("invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		return UnauthorizedError("missing or invalid token")
	case errors.Is(err, storage.ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, storage.ErrConflict):
		return ConflictError(strings.TrimPrefix(err.Error(), "conflict: "))
	default:
		return InternalServerError()
	}
}

// writeError writes the response for err and logs it: server errors at
// error level, client errors at debug.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponseFor(err)
	fields := log.NewFields().
		WithError(err).
		WithErrorType(errorType(resp.statusCode)).
		WithHTTPRequest(r.Method, r.URL.Path, "", "", "").
		With(log.FieldStatusCode, resp.statusCode)

	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	resp.Write(w)
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusOK:
		return log.ErrorTypeValidation
	case http.StatusUnauthorized:
		return log.ErrorTypeAuth
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusConflict:
		return log.ErrorTypeConflict
	case http.StatusTooManyRequests:
		return log.ErrorTypeRateLimit
	default:
		return log.ErrorTypeInternal
	}
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
