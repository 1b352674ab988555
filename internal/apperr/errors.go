// Package apperr defines the error taxonomy surfaced to API clients.
//
// Flows translate lower-level failures (codec, store, hasher) into one of
// these values at their boundary; handlers only ever render an AppError.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeTransient        Code = "TRANSIENT"
	CodeMisconfiguration Code = "MISCONFIGURATION"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeConflict         Code = "CONFLICT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// AppError is the unified application error type.
type AppError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Unauthorized is returned for missing, invalid, expired or wrong-role
// credentials. The message is shown to the client verbatim.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return &AppError{
		Code: CodeUnauthorized, Message: message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Transient marks an infrastructure failure (hashing, lookups) that is safe
// to retry. It must never be confused with a credential rejection.
func Transient(operation string, cause error) *AppError {
	return &AppError{
		Code: CodeTransient, Message: "Unable to process request at this time, please try again later",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Cause: fmt.Errorf("%s: %w", operation, cause),
	}
}

// Misconfiguration is fatal at startup.
func Misconfiguration(field string, cause error) *AppError {
	return &AppError{
		Code: CodeMisconfiguration, Message: fmt.Sprintf("invalid configuration: %s", field),
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

func InvalidInput(field, reason string) *AppError {
	return &AppError{
		Code: CodeInvalidInput, Message: fmt.Sprintf("Invalid %s: %s", field, reason),
		HTTPStatus: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code: CodeConflict, Message: message,
		HTTPStatus: http.StatusConflict,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code: CodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func RateLimited() *AppError {
	return &AppError{
		Code: CodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

func Internal(cause error) *AppError {
	return &AppError{
		Code: CodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// As extracts an AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Response is the JSON body written for failed requests.
type Response struct {
	Error Body `json:"error"`
}

type Body struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ToResponse renders err for a client. Anything that is not an AppError is
// reported as an internal error so that raw causes never leak.
func ToResponse(err error) (int, Response) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(err)
	}
	return appErr.HTTPStatus, Response{Error: Body{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Retryable: appErr.Retryable,
	}}
}
