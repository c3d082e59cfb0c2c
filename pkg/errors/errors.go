package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the class of failure seen while harvesting an account
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypePrivate     ErrorType = "private"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Sentinel errors matched with errors.Is against any *Error of the same type
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrPrivateAccount    = errors.New("account is private or empty")
	ErrTransientFetch    = errors.New("transient fetch failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// Error represents a feed or download error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Account string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	if e.Account != "" {
		msg = fmt.Sprintf("%s [account %s]", msg, e.Account)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps the error type onto the package sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAccountNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrPrivateAccount:
		return e.Type == ErrorTypePrivate
	case ErrTransientFetch:
		return IsRetryable(e.Type)
	case ErrMalformedResponse:
		return e.Type == ErrorTypeParsing
	}
	return false
}

// New creates a typed error
func New(errType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a typed error around a cause
func Wrap(err error, errType ErrorType, code int, message string) *Error {
	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound builds the error returned when an account listing is not available
func NotFound(account string, code int) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Account: account,
		Message: fmt.Sprintf("user %s does not exist", account),
	}
}

// Private builds the error returned when a listing yields no items
func Private(account string) *Error {
	return &Error{
		Type:    ErrorTypePrivate,
		Code:    200,
		Account: account,
		Message: fmt.Sprintf("user %s is private", account),
	}
}

// Malformed builds the error returned for an unexpected response shape
func Malformed(account string, code int, err error) *Error {
	return &Error{
		Type:    ErrorTypeParsing,
		Code:    code,
		Account: account,
		Message: "unexpected response shape",
		Err:     err,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// IsAccountFatal reports whether err should abort the crawl of a single account
func IsAccountFatal(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrPrivateAccount) ||
		errors.Is(err, ErrMalformedResponse)
}
