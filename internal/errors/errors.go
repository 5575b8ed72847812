package errors

import (
	stderrors "errors"
	"fmt"

	"goposterior/domain/core"
)

// Error codes carried by AppError. The API maps them to HTTP statuses.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNumericalDegeneracy = "NUMERICAL_DEGENERACY"
	CodeInsufficientData    = "INSUFFICIENT_DATA"
	CodeNotFound            = "NOT_FOUND"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeDatasetError        = "DATASET_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError is a coded error. Cause keeps the domain sentinel reachable
// through errors.Is.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

// domainCodes is checked in order; the first matching sentinel wins
var domainCodes = []struct {
	sentinel error
	code     string
}{
	{core.ErrInvalidInput, CodeInvalidInput},
	{core.ErrNumericalDegeneracy, CodeNumericalDegeneracy},
	{core.ErrInsufficientData, CodeInsufficientData},
	{core.ErrNotFound, CodeNotFound},
}

// FromDomain maps a domain sentinel to its code, INTERNAL_ERROR otherwise
func FromDomain(err error) string {
	for _, dc := range domainCodes {
		if stderrors.Is(err, dc.sentinel) {
			return dc.code
		}
	}
	return CodeInternalError
}

// Wrap adds context to err. The code of an inner AppError survives;
// otherwise it is derived from the domain sentinel.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := FromDomain(err)
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the outermost AppError code, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// InvalidInput reports a missing required field or a non-positive denominator
func InvalidInput(cause error) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: "invalid input", Cause: cause}
}

// NumericalDegeneracy reports valid inputs that combined into a non-finite result
func NumericalDegeneracy(cause error) *AppError {
	return &AppError{Code: CodeNumericalDegeneracy, Message: "numerical degeneracy", Cause: cause}
}

// InsufficientData reports an aggregate that cannot be formed from the selected rows
func InsufficientData(cause error) *AppError {
	return &AppError{Code: CodeInsufficientData, Message: "insufficient data", Cause: cause}
}

func NotFound(resource string, cause error) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", Cause: cause}
}

func ConfigInvalid(message string) *AppError {
	return &AppError{Code: CodeConfigInvalid, Message: message}
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func DatasetError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatasetError, Message: message, Cause: cause}
}
