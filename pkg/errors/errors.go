package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the categories of failure the API client can surface
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeHTTP          ErrorType = "http"
	ErrorTypeDataIntegrity ErrorType = "data_integrity"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// DiagnosticHeaders lists the response headers copied onto an HTTPError.
var DiagnosticHeaders = []string{
	"X-Request-Guid",
	"X-Route-Name",
	"X-Error-Status",
	"X-Error-Name",
	"X-Error-Message",
}

// ValidationError reports malformed request parameters or a response body
// that does not match the expected envelope.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error")
	if e.Field != "" {
		b.WriteString(" on ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrorPayload is the error triple of the common wrapper object.
type ErrorPayload struct {
	ErrorID      int    `json:"error_id"`
	ErrorName    string `json:"error_name"`
	ErrorMessage string `json:"error_message"`
}

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	// Headers holds the subset of DiagnosticHeaders present on the response,
	// keyed by lower-case header name.
	Headers map[string]string
	Payload ErrorPayload
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("http error (code %d) %s %s", e.StatusCode, e.Method, e.URL)
	if e.Payload.ErrorName != "" {
		msg += fmt.Sprintf(": %s (%d): %s", e.Payload.ErrorName, e.Payload.ErrorID, e.Payload.ErrorMessage)
	}
	if len(e.Headers) > 0 {
		keys := make([]string, 0, len(e.Headers))
		for k := range e.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Headers[k])
		}
		msg += " [" + strings.Join(parts, " ") + "]"
	}
	return msg
}

// DataIntegrityError is returned when a successful response breaks an
// endpoint's documented invariant.
type DataIntegrityError struct {
	Message string
	Detail  any
}

func (e *DataIntegrityError) Error() string {
	if e.Detail == nil {
		return "data integrity error: " + e.Message
	}
	return fmt.Sprintf("data integrity error: %s (%v)", e.Message, e.Detail)
}

// NetworkError wraps a transport failure that happened before any response
// was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TypeOf classifies err into an ErrorType
func TypeOf(err error) ErrorType {
	var (
		validationErr *ValidationError
		httpErr       *HTTPError
		integrityErr  *DataIntegrityError
		networkErr    *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return ErrorTypeValidation
	case errors.As(err, &httpErr):
		return ErrorTypeHTTP
	case errors.As(err, &integrityErr):
		return ErrorTypeDataIntegrity
	case errors.As(err, &networkErr):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable reports whether err may be retried. Only transport failures
// qualify; every hard failure is fail-fast.
func IsRetryable(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}
