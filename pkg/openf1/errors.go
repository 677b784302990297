package openf1

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	// KindTransport covers timeouts, DNS and connection failures as well as
	// calls rejected by the open circuit breaker.
	KindTransport ErrorKind = iota
	// KindStatus is an unexpected HTTP status
	KindStatus
	// KindDecode is a response body which is not valid JSON
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("GET %s: %s error: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports errors worth another attempt: throttling and server errors.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindStatus &&
		(e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500)
}

// KindOf returns the kind of a FetchError within err
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

func IsTransport(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTransport
}

func isRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}
