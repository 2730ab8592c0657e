// Package errors provides custom error types for the Hive chat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrSocketClosed    = errors.New("socket closed")
	ErrEmptyMessage    = errors.New("message is empty")
)

// HiveError carries the context shared by every failure the client reports:
// which operation failed, against which endpoint, and what the server said.
type HiveError struct {
	Operation  string
	Endpoint   string
	HTTPStatus int
	Body       string
	Cause      error
}

func (e *HiveError) Error() string {
	msg := e.Operation
	if e.HTTPStatus > 0 {
		msg = fmt.Sprintf("%s [%d]", msg, e.HTTPStatus)
	}
	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Endpoint)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *HiveError) Unwrap() error {
	return e.Cause
}

// WithBody attaches a (truncated) response body for diagnostics
func (e *HiveError) WithBody(body string) *HiveError {
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	e.Body = body
	return e
}

// NetworkError is a transport-level failure (dial, DNS, reset, timeout)
type NetworkError struct {
	HiveError
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{HiveError{Operation: operation, Endpoint: endpoint, Cause: cause}}
}

func (e *NetworkError) Error() string {
	return "network error: " + e.HiveError.Error()
}

// APIError represents a request the server answered with a failure
type APIError struct {
	HiveError
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{HiveError{
		Operation:  message,
		Endpoint:   endpoint,
		HTTPStatus: statusCode,
	}}
}

func (e *APIError) Error() string {
	return "API error: " + e.HiveError.Error()
}

// Is matches status-derived sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.HTTPStatus == 404
	case ErrUnauthorized:
		return e.HTTPStatus == 401 || e.HTTPStatus == 403
	}
	_, ok := target.(*APIError)
	return ok
}

// AuthError represents a missing or rejected token
type AuthError struct {
	HiveError
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{HiveError{Operation: message}}
}

func (e *AuthError) Error() string {
	if e.Operation == "" {
		return "authentication failed: token missing or expired"
	}
	return "authentication failed: " + e.HiveError.Error()
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrUnauthorized {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// ParseError represents a malformed response body or socket frame
type ParseError struct {
	HiveError
	Payload string
}

// NewParseError creates a new ParseError. payload is the offending input.
func NewParseError(message, payload string) *ParseError {
	if len(payload) > 256 {
		payload = payload[:256] + "..."
	}
	return &ParseError{HiveError: HiveError{Operation: message}, Payload: payload}
}

func (e *ParseError) Error() string {
	return "parse error: " + e.HiveError.Error()
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// SocketError represents a websocket connection-level failure
type SocketError struct {
	HiveError
}

// NewSocketError creates a new SocketError
func NewSocketError(operation, endpoint string, cause error) *SocketError {
	return &SocketError{HiveError{Operation: operation, Endpoint: endpoint, Cause: cause}}
}

func (e *SocketError) Error() string {
	return "socket error: " + e.HiveError.Error()
}

// Is allows comparison with sentinel errors
func (e *SocketError) Is(target error) bool {
	if target == ErrSocketClosed {
		return true
	}
	_, ok := target.(*SocketError)
	return ok
}

// hiveErrorOf extracts the embedded HiveError from any of the typed errors
func hiveErrorOf(err error) *HiveError {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return &netErr.HiveError
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &apiErr.HiveError
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return &authErr.HiveError
	}
	var sockErr *SocketError
	if errors.As(err, &sockErr) {
		return &sockErr.HiveError
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return &parseErr.HiveError
	}
	var hiveErr *HiveError
	if errors.As(err, &hiveErr) {
		return hiveErr
	}
	return nil
}

// GetHTTPStatus returns the HTTP status attached to err, or 0
func GetHTTPStatus(err error) int {
	if he := hiveErrorOf(err); he != nil {
		return he.HTTPStatus
	}
	return 0
}

// GetEndpoint returns the endpoint attached to err, or ""
func GetEndpoint(err error) string {
	if he := hiveErrorOf(err); he != nil {
		return he.Endpoint
	}
	return ""
}

// GetResponseBody returns the response body attached to err, or ""
func GetResponseBody(err error) string {
	if he := hiveErrorOf(err); he != nil {
		return he.Body
	}
	return ""
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsParseError reports whether err is a parse failure
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsSocketError reports whether err is a socket failure
func IsSocketError(err error) bool {
	var sockErr *SocketError
	return errors.As(err, &sockErr)
}

// IsNotFound reports whether err means the resource does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
