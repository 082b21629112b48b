// Package qtv queries QuakeWorld QTV relay servers: live status over the
// "status 87" UDP protocol and recorded demo listings over HTTP.
package qtv

import (
	"context"
	"net/http"
	"time"

	"github.com/woozymasta/qtvstat/internal/udp"
)

// DefaultHTTPTimeout bounds a demo listing request when no timeout is given.
const DefaultHTTPTimeout = 10 * time.Second

// Transport sends one datagram and returns the first reply.
type Transport interface {
	SendAndRead(ctx context.Context, address string, payload []byte) ([]byte, error)
}

// HTTPDoer executes HTTP requests, *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client holds the transports used by the queries. It keeps no state between calls.
type Client struct {
	UDP  Transport
	HTTP HTTPDoer

	// UserAgent is sent with demo listing requests when set.
	UserAgent string

	// MaxListingSize caps a demo listing body, DefaultMaxListingSize when zero.
	MaxListingSize int64
}

// New returns a Client, nil transports are replaced by defaults.
func New(transport Transport, httpClient HTTPDoer) *Client {
	if transport == nil {
		transport = udp.New(udp.Options{})
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{UDP: transport, HTTP: httpClient}
}
