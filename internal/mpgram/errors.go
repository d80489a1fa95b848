package mpgram

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies why a request produced no result.
type ErrorKind string

const (
	// Network failure, including timeouts and cancelled contexts
	ErrorKindTransport ErrorKind = "transport"
	// The server answered with a non-2xx status
	ErrorKindHTTP ErrorKind = "http"
	// The body could not be decoded into the expected shape
	ErrorKindDecode ErrorKind = "decode"
)

// RequestError is returned by every client operation that did not yield a
// usable result. The client has already logged it by the time the caller
// sees it.
type RequestError struct {
	Kind       ErrorKind
	Method     string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case ErrorKindHTTP:
		return fmt.Sprintf("%s: http status %d", e.Method, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Method, e.Kind, e.Err)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request hit the client timeout or a context
// deadline.
func (e *RequestError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsKind reports whether err is a *RequestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == kind
}
