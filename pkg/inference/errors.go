package inference

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an inference failure.
type Kind int

const (
	// KindTransport covers connection failures, timeouts and cancellation.
	KindTransport Kind = iota

	// KindStatus is a reply with a status other than 200.
	KindStatus

	// KindDecode is a 200 reply whose body is not valid JSON.
	KindDecode
)

func (k Kind) String() string {
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

// Error is returned by Client.Generate for every failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("inference server returned status %d: %s", e.StatusCode, e.Body)
	case KindDecode:
		return fmt.Sprintf("decoding inference response: %v", e.Err)
	default:
		return fmt.Sprintf("inference request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline being exceeded.
func (e *Error) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
