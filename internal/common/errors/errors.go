// Package errors provides the standardized error taxonomy of the preview service
// and its mapping onto HTTP responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeCardNotFound     ErrorCode = "CARD_NOT_FOUND"
	ErrCodeRenderFailure    ErrorCode = "RENDER_FAILURE"
	ErrCodeUpstreamDegraded ErrorCode = "UPSTREAM_DEGRADED"
	ErrCodeLookupFailed     ErrorCode = "LOOKUP_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewBadRequestError reports a missing or malformed identifier.
func NewBadRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBadRequest,
		Message:   "Invalid card identifier",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewCardNotFoundError reports that neither the slug nor the custom domain resolved.
func NewCardNotFoundError(identifier string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCardNotFound,
		Message:   "Card not found",
		Details:   fmt.Sprintf("identifier: %s", identifier),
		Timestamp: time.Now().UTC(),
	}
}

// NewRenderFailureError wraps an unexpected layout, serialization or rasterization error.
func NewRenderFailureError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRenderFailure,
		Message:   "Preview rendering failed",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamDegradedError describes a best-effort fetch that fell back.
// It is never written to a caller.
func NewUpstreamDegradedError(source string, err error) *StandardError {
	details := "unavailable"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamDegraded,
		Message:   fmt.Sprintf("Upstream '%s' degraded", source),
		Details:   details,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewLookupFailedError wraps a card store error other than not-found.
func NewLookupFailedError(lookup string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLookupFailed,
		Message:   "Card lookup failed",
		Details:   fmt.Sprintf("lookup: %s, error: %s", lookup, err.Error()),
		Metadata:  map[string]interface{}{"lookup": lookup},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. HTTP Integration
// ==========================

var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeCardNotFound:     http.StatusNotFound,
	ErrCodeRenderFailure:    http.StatusInternalServerError,
	ErrCodeUpstreamDegraded: http.StatusInternalServerError,
	ErrCodeLookupFailed:     http.StatusInternalServerError,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// HTTPStatus returns the status code written for code.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsCallerVisible reports whether an error of this code is ever written to a
// caller. Degraded upstreams are always substituted locally.
func IsCallerVisible(code ErrorCode) bool {
	return code != ErrCodeUpstreamDegraded
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REQUEST"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "BUSINESS"
	case strings.Contains(codeStr, "LOOKUP") || strings.Contains(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "RENDER"):
		return "RENDER"
	default:
		return "OTHER"
	}
}
