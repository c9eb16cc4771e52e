package wiki

import (
	"fmt"
	"net/http"
)

// NetworkError reports a transport failure or an unexpected HTTP status.
type NetworkError struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("article lookup failed: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("article lookup failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthenticationError reports that the service rejected the bearer credential.
type AuthenticationError struct {
	StatusCode int
	// Code is the MediaWiki error code when the rejection came in the body.
	Code    string
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("article lookup unauthorized (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("article lookup unauthorized: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ResponseFormatError reports a response body that does not have the
// expected shape.
type ResponseFormatError struct {
	Reason string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected article lookup response: %s: %v", e.Reason, e.Err)
	}
	return "unexpected article lookup response: " + e.Reason
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }
