package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies why a backend call did not produce a usable result
type Kind int

const (
	// KindTimeout means the per-call deadline expired and the request was aborted
	KindTimeout Kind = iota + 1
	// KindNetworkUnavailable means the backend could not be reached
	KindNetworkUnavailable
	// KindHTTPStatus means the backend answered with a non-2xx status
	KindHTTPStatus
	// KindParse means the response body could not be decoded
	KindParse
	// KindCanceled means the caller canceled the request (poller stop or superseded cycle)
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindHTTPStatus:
		return "http_status"
	case KindParse:
		return "parse_error"
	case KindCanceled:
		return "canceled"
	}
	return "unknown"
}

// Error is the only error type returned by Fetcher
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int    // set for KindHTTPStatus
	Body       string // response body for KindHTTPStatus, possibly truncated
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("%s %s: http status %d: %s", e.Method, e.URL, e.StatusCode, e.Message())
	case KindTimeout:
		return fmt.Sprintf("%s %s: request timed out", e.Method, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns a short human-readable reason, preferring the backend's
// own "message" or "error" field when the body is JSON
func (e *Error) Message() string {
	switch e.Kind {
	case KindTimeout:
		return "request timed out, the backend might be unresponsive"
	case KindNetworkUnavailable:
		return "failed to connect to the backend"
	case KindParse:
		return "unexpected response from the backend"
	case KindCanceled:
		return "request canceled"
	}

	if gjson.Valid(e.Body) {
		for _, field := range []string{"message", "error", "detail"} {
			if v := gjson.Get(e.Body, field); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	if body := strings.TrimSpace(e.Body); body != "" && len(body) <= 200 {
		return body
	}
	return http.StatusText(e.StatusCode)
}

// KindOf returns the Kind of err, or 0 when err is not a fetcher error
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// Is reports whether err is a fetcher error of the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusCode returns the HTTP status of a KindHTTPStatus error, or 0
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == KindHTTPStatus {
		return fe.StatusCode
	}
	return 0
}
