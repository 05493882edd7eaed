package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/hirestore/hs-order/pkg/status"
)

// AppError is an error carrying the HTTP status and the envelope status code
// it should be rendered with.
type AppError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *AppError) Error() string {
	return e.Message
}

func New(httpStatusCode int, status string, message string) error {
	return &AppError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
	}
}

// Destruct unwraps err into an AppError. Errors that are not application
// errors are rendered as an internal server error.
func Destruct(err error) *AppError {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae
	}

	return &AppError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}

// HasStatus reports whether err is an AppError with the given status code.
func HasStatus(err error, code string) bool {
	var ae *AppError
	if !stderrors.As(err, &ae) {
		return false
	}

	return ae.Status == code
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
