package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents common error identifiers reused across the API.
type ErrorCode string

const (
	ErrValidation ErrorCode = "validation_error"
	ErrUpstream   ErrorCode = "upstream_error"
	ErrInternal   ErrorCode = "internal_error"
)

// AppError carries the client facing message, status and optional details
// that end up in the {"error": ..., "details": ...} response body.
type AppError struct {
	err        error
	message    string
	code       ErrorCode
	httpStatus int
	details    interface{}
}

// New creates a new AppError with supplied details.
func New(message string, status int, code ErrorCode, err error) *AppError {
	return &AppError{
		err:        err,
		message:    message,
		httpStatus: status,
		code:       code,
	}
}

// Validation is a 400 with the given message.
func Validation(message string) *AppError {
	return New(message, http.StatusBadRequest, ErrValidation, nil)
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Message returns a safe error message for clients.
func (e *AppError) Message() string {
	return e.message
}

// StatusCode returns the HTTP status to use for this error.
func (e *AppError) StatusCode() int {
	return e.httpStatus
}

// Code returns the application level error code.
func (e *AppError) Code() ErrorCode {
	return e.code
}

// WithDetails attaches a payload rendered under "details".
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.details = details
	return &clone
}

// Details returns the attached payload, or nil.
func (e *AppError) Details() interface{} {
	return e.details
}

// Wrap converts a standard error into an AppError if needed.
func Wrap(err error, message string, status int, code ErrorCode) *AppError {
	if err == nil {
		return nil
	}
	if appErr := new(AppError); errors.As(err, &appErr) {
		return appErr
	}
	return New(message, status, code, err)
}
