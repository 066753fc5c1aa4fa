// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Market data errors
	ErrDataUnavailable = &Error{Code: "DATA_UNAVAILABLE", Message: "market data unavailable"}
	ErrNoData          = &Error{Code: "NO_DATA", Message: "no data available"}

	// Reasoning errors
	ErrProviderFailed = &Error{Code: "PROVIDER_FAILED", Message: "LLM provider request failed"}
	ErrParseFailed    = &Error{Code: "PARSE_FAILED", Message: "failed to parse reasoning output"}

	// Broker errors
	ErrBrokerFailed = &Error{Code: "BROKER_FAILED", Message: "brokerage request failed"}
	ErrNotConnected = &Error{Code: "NOT_CONNECTED", Message: "brokerage not connected"}
	ErrOrderFailed  = &Error{Code: "ORDER_FAILED", Message: "order failed"}
	ErrMarketClosed = &Error{Code: "MARKET_CLOSED", Message: "market is closed"}

	// Queue errors
	ErrNotFound          = &Error{Code: "NOT_FOUND", Message: "not found"}
	ErrInvalidTransition = &Error{Code: "INVALID_TRANSITION", Message: "invalid state transition"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
)
