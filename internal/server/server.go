// Package server implements the HTTP API exposing QTV status queries and demo listings.
package server

import (
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/qtvstat/internal/config"
	"github.com/woozymasta/qtvstat/internal/geoip"
	"github.com/woozymasta/qtvstat/internal/qtv"
)

// writeMargin is the time left after the request deadline to finish the response.
const writeMargin = 5 * time.Second

// New creates a new Server instance with the provided query client, GeoIP provider, and configuration.
func New(client *qtv.Client, geo *geoip.Provider, cfg *config.Config) *Server {
	allowed := make(map[uint64]struct{})
	for _, address := range cfg.Server.AllowedAddresses {
		allowed[xxhash.Sum64String(address)] = struct{}{}
	}

	return &Server{
		client:           client,
		geoip:            geo,
		allowedAddresses: allowed,
		allowAny:         cfg.Server.AllowAnyAddress,
		queryOptions:     cfg.Query,
		httpTimeout:      cfg.HTTP.Timeout,
		requestTimeout:   cfg.Server.RequestTimeout,
		maxAddresses:     cfg.Server.MaxAddresses,
		rateLimitCount:   cfg.RateLimit.Count,
		rateLimitWin:     cfg.RateLimit.Window,
		trustProxy:       cfg.Server.TrustProxy,

		shutdown: make(chan struct{}),
	}
}

// Close stops background routines started by Run.
func (s *Server) Close() {
	close(s.shutdown)
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	// Query endpoints share one rate limiter
	api := http.NewServeMux()
	api.Handle("GET /api/info", http.HandlerFunc(s.handleInfo))
	api.Handle("GET /api/demos", http.HandlerFunc(s.handleDemos))
	limited := s.RateLimitMiddleware(api)

	mux.Handle("/api/info", limited)
	mux.Handle("/api/demos", limited)
	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))

	return s.LoggingMiddleware(mux)
}

// WriteTimeout returns the http.Server write timeout that fits the request deadline
// plus the GeoIP lookups and response encoding that follow it.
func (s *Server) WriteTimeout() time.Duration {
	return s.requestTimeout + writeMargin
}

// isAllowed reports whether address may be queried through the API.
func (s *Server) isAllowed(address string) bool {
	if s.allowAny {
		return true
	}

	_, ok := s.allowedAddresses[xxhash.Sum64String(address)]
	return ok
}
