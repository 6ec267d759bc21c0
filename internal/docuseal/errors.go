package docuseal

import (
	"errors"
	"fmt"
)

// Error codes carried by *Error
const (
	CodeRetryExceeded      = "RETRY_EXCEEDED"
	CodeRetryCancelled     = "RETRY_CANCELLED"
	CodeInvalidRetryConfig = "INVALID_RETRY_CONFIG"
)

var (
	// ErrFrameNotReady is logged when a message targets a frame without a content window.
	ErrFrameNotReady = errors.New("docuseal iframe not ready")
	// ErrForeignMessage marks an inbound payload that does not come from DocuSeal.
	ErrForeignMessage = errors.New("message does not belong to docuseal")
	// ErrUntrustedOrigin marks an inbound payload sent from an origin outside the allowlist.
	ErrUntrustedOrigin = errors.New("message origin not allowed")
)

// Error is an application error with a stable code and the underlying failure.
type Error struct {
	Message string
	Code    string
	Details error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying failure
func (e *Error) Unwrap() error {
	return e.Details
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// InvalidURLError is returned when a base URL is not a parseable absolute URL.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid url %q: not an absolute url", e.URL)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}
