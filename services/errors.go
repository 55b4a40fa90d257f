package services

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// ErrorKind classifies a pipeline or endpoint failure for the HTTP boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTimeout
)

// AppError carries a failure kind plus a caller-safe message. The wrapped
// error is for logs only and never reaches the response body.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to its HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func validationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func notFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func conflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func timeoutError(message string) *AppError {
	return &AppError{Kind: KindTimeout, Message: message}
}

func internalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// classifyError folds storage and context errors into the taxonomy. Unknown
// errors become internal failures carrying the given fallback message.
func classifyError(err error, fallback string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutError("Request timeout")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return conflictError("Duplicate entry found")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundError("Record not found")
	default:
		return internalError(fallback, err)
	}
}

// truncateForLog bounds logged user content to limit log size and sensitive
// content exposure.
func truncateForLog(s string) string {
	const maxLogged = 100
	if len(s) > maxLogged {
		return s[:maxLogged]
	}
	return s
}
