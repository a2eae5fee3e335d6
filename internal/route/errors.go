package route

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a routing-layer error.
type ErrorType string

const (
	// ErrorTypeRegistration indicates a failure while registering a route.
	ErrorTypeRegistration ErrorType = "registration"

	// ErrorTypeDiscovery indicates a failure while querying the registry.
	ErrorTypeDiscovery ErrorType = "discovery"

	// ErrorTypeBinding indicates a handler reference could not be resolved
	// locally. Expected for records owned by other processes.
	ErrorTypeBinding ErrorType = "binding"

	// ErrorTypeRouting indicates a request-time routing failure.
	ErrorTypeRouting ErrorType = "routing"

	// ErrorTypeExecution indicates a wrapped handler failure.
	ErrorTypeExecution ErrorType = "execution"

	// ErrorTypeFallback indicates the legacy dispatch path also failed.
	ErrorTypeFallback ErrorType = "fallback"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeDuplicateRoute       ErrorCode = "duplicate_route"
	ErrorCodeInvalidSpec          ErrorCode = "invalid_spec"
	ErrorCodeRegistryUnavailable  ErrorCode = "registry_unavailable"
	ErrorCodeHandlerNotResolvable ErrorCode = "handler_not_resolvable"
	ErrorCodeRouteNotFound        ErrorCode = "route_not_found"
	ErrorCodeHandlerFailed        ErrorCode = "handler_failed"
	ErrorCodeFallbackFailed       ErrorCode = "fallback_failed"
	ErrorCodeUnauthenticated      ErrorCode = "unauthenticated"
)

// Error is the canonical routing-layer error. Boundary components translate
// it into structured responses; internal callers branch on Type and Code.
type Error struct {
	// Type is the category of error
	Type ErrorType

	// Code identifies the specific failure
	Code ErrorCode

	// Message is the human-readable error message
	Message string

	// StatusCode is the suggested HTTP status code
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *Error) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Code {
	case ErrorCodeDuplicateRoute:
		return http.StatusConflict
	case ErrorCodeInvalidSpec:
		return http.StatusBadRequest
	case ErrorCodeRouteNotFound:
		return http.StatusNotFound
	case ErrorCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrorCodeRegistryUnavailable, ErrorCodeFallbackFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewError creates a new routing-layer error.
func NewError(t ErrorType, code ErrorCode, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// WithStatusCode sets a specific HTTP status code.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// AsError unwraps err into a routing-layer *Error if possible.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

// Convenience constructors for the error taxonomy.

// ErrDuplicateRoute reports an active (method, pattern) collision, including
// ambiguous parameterized patterns rejected at registration time.
func ErrDuplicateRoute(method, pattern, existingID string) *Error {
	return NewError(ErrorTypeRegistration, ErrorCodeDuplicateRoute,
		fmt.Sprintf("%s %s conflicts with active route %s", method, pattern, existingID))
}

// ErrInvalidSpec reports a malformed route spec.
func ErrInvalidSpec(message string) *Error {
	return NewError(ErrorTypeRegistration, ErrorCodeInvalidSpec, message)
}

// ErrRegistryUnavailable reports that the backing registry store could not
// be reached.
func ErrRegistryUnavailable(err error) *Error {
	return NewError(ErrorTypeDiscovery, ErrorCodeRegistryUnavailable,
		fmt.Sprintf("route registry unavailable: %v", err))
}

// ErrHandlerNotResolvable reports a handler reference with no local binding.
func ErrHandlerNotResolvable(ref string) *Error {
	return NewError(ErrorTypeBinding, ErrorCodeHandlerNotResolvable,
		fmt.Sprintf("no local handler bound for %q", ref))
}

// ErrRouteNotFound reports that no route matched the request.
func ErrRouteNotFound(method, path string) *Error {
	return NewError(ErrorTypeRouting, ErrorCodeRouteNotFound,
		fmt.Sprintf("route not found: %s %s", method, path))
}

// ErrRecordNotFound reports that no record exists for a route ID.
func ErrRecordNotFound(routeID string) *Error {
	return NewError(ErrorTypeRouting, ErrorCodeRouteNotFound,
		fmt.Sprintf("no route record with id %s", routeID))
}

// ErrExecution wraps an unexpected handler or chain failure.
func ErrExecution(err error) *Error {
	return NewError(ErrorTypeExecution, ErrorCodeHandlerFailed,
		fmt.Sprintf("request execution failed: %v", err))
}

// ErrFallbackFailed reports that the legacy dispatch path also failed.
func ErrFallbackFailed(err error) *Error {
	return NewError(ErrorTypeFallback, ErrorCodeFallbackFailed,
		fmt.Sprintf("legacy dispatch failed: %v", err))
}

// ErrUnauthenticated reports a tenant extraction failure.
func ErrUnauthenticated(message string) *Error {
	return NewError(ErrorTypeRouting, ErrorCodeUnauthenticated, message)
}

// Predicates used by callers that branch on failure class.

// IsDuplicateRoute reports whether err is a duplicate-route registration error.
func IsDuplicateRoute(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Code == ErrorCodeDuplicateRoute
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Code == ErrorCodeRouteNotFound
}

// IsNotResolvable reports whether err is an expected binding miss.
func IsNotResolvable(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Code == ErrorCodeHandlerNotResolvable
}
