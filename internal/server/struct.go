package server

import (
	"time"

	"github.com/woozymasta/qtvstat/internal/config"
	"github.com/woozymasta/qtvstat/internal/geoip"
	"github.com/woozymasta/qtvstat/internal/qtv"
)

// Server holds the dependencies and configuration required to answer API requests.
type Server struct {
	// client performs the UDP status queries and HTTP demo listings.
	client *qtv.Client

	// geoip resolves queried addresses to country codes.
	// It can be nil if no GeoIP database is configured.
	geoip *geoip.Provider

	// allowedAddresses is a set of hashed QTV addresses (using xxhash) the API may query.
	// An empty set denies every address unless allowAny is set.
	allowedAddresses map[uint64]struct{}

	// allowAny disables the allow-list check.
	allowAny bool

	// shutdown is closed to stop background cleanup routines.
	shutdown chan struct{}

	// queryOptions holds the status query timeout and worker count.
	queryOptions config.Query

	// httpTimeout bounds every demo listing request.
	httpTimeout time.Duration

	// requestTimeout bounds the fan-out of one API request.
	requestTimeout time.Duration

	// maxAddresses caps the number of addresses in one request.
	maxAddresses int

	// rateLimitCount is the number of requests allowed per client IP within rateLimitWin.
	rateLimitCount int

	// rateLimitWin is the time window duration for the rate limiter.
	rateLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}
