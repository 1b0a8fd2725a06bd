// utils/apperror.go
package utils

import "errors"

// AppError is an operational error: one raised deliberately with a status
// code, whose message is safe to show to the caller. Anything that is not an
// AppError (and cannot be classified into one) is treated as a programming
// error and surfaced as a generic 500.
type AppError struct {
	Message    string
	StatusCode int
}

// NewAppError creates an operational error with the given message and HTTP
// status code.
func NewAppError(message string, statusCode int) *AppError {
	return &AppError{Message: message, StatusCode: statusCode}
}

func (e *AppError) Error() string {
	return e.Message
}

// AsAppError unwraps err into an *AppError if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
