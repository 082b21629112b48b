package qtv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrListingTooLarge is wrapped by a FetchError when a demo listing exceeds the size cap.
var ErrListingTooLarge = errors.New("demo listing too large")

// ErrHeaderMissing is returned when a status reply does not start with the expected header.
var ErrHeaderMissing = &ProtocolError{msg: "header is missing"}

// ProtocolError reports a reply that was received but does not follow the wire format.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string {
	return e.msg
}

// TransportError reports a failed UDP round trip: send failure, no reply or timeout.
// A zero Limit means the transport applied its own default timeout.
type TransportError struct {
	Err     error
	Address string
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TransportError) Error() string {
	if e.Limit <= 0 {
		return fmt.Sprintf("qtv: unable to get status 87 from %s (%dms, transport timeout): %v",
			e.Address, e.Elapsed.Milliseconds(), e.Err)
	}

	return fmt.Sprintf("qtv: unable to get status 87 from %s (%d/%dms timeout): %v",
		e.Address, e.Elapsed.Milliseconds(), e.Limit.Milliseconds(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the round trip failed because no reply arrived in time.
func (e *TransportError) Timeout() bool {
	return isTimeout(e.Err)
}

// HTTPStatusError reports a non-success HTTP response status.
type HTTPStatusError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %q from %s", e.Status, e.URL)
}

// FetchError reports a failed demo listing request.
// Err is either a transport-level error or an *HTTPStatusError.
type FetchError struct {
	Err     error
	URL     string
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *FetchError) Error() string {
	var statusErr *HTTPStatusError
	if errors.As(e.Err, &statusErr) {
		return fmt.Sprintf("qtv: unable to fetch %s: %v", e.URL, e.Err)
	}

	return fmt.Sprintf("qtv: unable to fetch (%d/%dms timeout) %s: %v",
		e.Elapsed.Milliseconds(), e.Limit.Milliseconds(), e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request was aborted by its deadline.
func (e *FetchError) Timeout() bool {
	return isTimeout(e.Err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
