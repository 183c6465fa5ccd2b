package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of extraction failure classes.
// Classification happens once, at the fetch boundary.
type ErrorKind string

const (
	KindUnsupportedPlatform ErrorKind = "UnsupportedPlatform"
	KindInvalidCriteria     ErrorKind = "InvalidCriteria"
	KindNetwork             ErrorKind = "NetworkError"
	KindAccessDenied        ErrorKind = "AccessDenied"
	KindRateLimited         ErrorKind = "RateLimited"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindUnexpectedStatus    ErrorKind = "UnexpectedStatus"
	KindParse               ErrorKind = "ParseError"
	KindCancelled           ErrorKind = "Cancelled"
	KindUnrecognizedPage    ErrorKind = "UnrecognizedPage"
	KindUnknown             ErrorKind = "Unknown"
)

// IsRetryable reports whether the fetcher may retry a failure of this kind
func IsRetryable(kind ErrorKind) bool {
	switch kind {
	case KindNetwork, KindRateLimited, KindUpstreamUnavailable:
		return true
	default:
		return false
	}
}

// ExtractionError is a classified failure scoped to one platform
type ExtractionError struct {
	Kind       ErrorKind
	Platform   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ExtractionError) Error() string {
	msg := string(e.Kind)
	if e.Platform != "" {
		msg = e.Platform + ": " + msg
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError builds a classified error
func NewExtractionError(kind ErrorKind, platform, message string, err error) *ExtractionError {
	return &ExtractionError{
		Kind:     kind,
		Platform: platform,
		Message:  message,
		Err:      err,
	}
}

// NewUnsupportedPlatformError is returned for platform names missing from the registry
func NewUnsupportedPlatformError(platform string) *ExtractionError {
	return &ExtractionError{
		Kind:     KindUnsupportedPlatform,
		Platform: platform,
		Message:  "platform is not registered",
	}
}

// NewInvalidCriteriaError is returned when search criteria fail validation
func NewInvalidCriteriaError(detail string) *ExtractionError {
	return &ExtractionError{
		Kind:    KindInvalidCriteria,
		Message: detail,
	}
}

// KindOf extracts the ErrorKind from err. Context errors map to Cancelled.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindUnknown
}

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewTimeoutError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusRequestTimeout,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

// NewUnrecognizedPageError returns an error when a URL is neither a known ATS nor a career page
func NewUnrecognizedPageError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Page is not a recognised career page",
		Detail:  detail,
	}
}

// FromExtractionError maps a classified error onto an HTTP-facing error
func FromExtractionError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	switch KindOf(err) {
	case KindInvalidCriteria:
		var ee *ExtractionError
		errors.As(err, &ee)
		return NewValidationError(ee.Message)
	case KindUnsupportedPlatform:
		return &CustomError{Code: http.StatusBadRequest, Message: "Unsupported platform", Detail: err.Error()}
	case KindUnrecognizedPage:
		return NewUnrecognizedPageError(err.Error())
	case KindCancelled:
		return NewTimeoutError("Extraction cancelled")
	case KindAccessDenied, KindRateLimited, KindUpstreamUnavailable, KindNetwork, KindUnexpectedStatus:
		return &CustomError{Code: http.StatusBadGateway, Message: "Upstream fetch failed", Detail: err.Error()}
	default:
		return NewInternalServerError(err.Error())
	}
}
