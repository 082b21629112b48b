// Package udp implements a minimal "send one datagram, read one reply" transport
// used for connectionless game server queries.
package udp

import (
	"context"
	"fmt"
	"net"
	"time"
)

const (
	// DefaultTimeout bounds a round trip when no timeout is configured.
	DefaultTimeout = 5 * time.Second

	// DefaultBufferSize fits a single unfragmented datagram on common links.
	DefaultBufferSize uint16 = 1400
)

// Options controls a single round trip.
type Options struct {
	Timeout    time.Duration
	BufferSize uint16
}

// Dialer sends datagrams with the configured options.
type Dialer struct {
	Options Options
}

// New returns a Dialer with zero values replaced by package defaults.
func New(options Options) *Dialer {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.BufferSize == 0 {
		options.BufferSize = DefaultBufferSize
	}

	return &Dialer{Options: options}
}

// SendAndRead writes payload to address and returns the first reply datagram.
// The round trip is bounded by the context deadline, or by Options.Timeout
// when the context has none.
func (d *Dialer) SendAndRead(ctx context.Context, address string, payload []byte) ([]byte, error) {
	timeout := d.Options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	bufSize := d.Options.BufferSize
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}

	var dialer net.Dialer
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read if the caller gives up before the deadline.
	stop := context.AfterFunc(dialCtx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write to %s: %w", address, err)
	}

	buf := make([]byte, bufSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read from %s: %w", address, err)
	}

	return buf[:n], nil
}
