package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/qtvstat/internal/models"
	"github.com/woozymasta/qtvstat/internal/qtv"
	"github.com/woozymasta/qtvstat/internal/vars"
)

// handleInfo performs live status queries of the requested QTV servers.
// Query params: ?address=qtv.quake.se:28000&address=...
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	addresses, ok := s.addresses(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	results := s.client.InfoPerAddress(ctx, addresses, s.queryOptions.Timeout, s.queryOptions.Workers)
	reports := models.NewStatusReports(results)

	// Lookups have their own bound and must not inherit an expired request deadline
	codes := s.geoip.CountryCodes(r.Context(), addresses)
	for i := range reports {
		reports[i].CountryCode = codes[reports[i].Address]
	}

	writeJSON(w, http.StatusOK, reports)
}

// handleDemos lists the recorded demos of the requested QTV servers.
// Query params: ?address=qtv.quake.se:28000&address=...&urls=true
func (s *Server) handleDemos(w http.ResponseWriter, r *http.Request) {
	addresses, ok := s.addresses(w, r)
	if !ok {
		return
	}

	withURLs, _ := strconv.ParseBool(r.URL.Query().Get("urls"))

	ctx, cancel := s.requestContext(r)
	defer cancel()

	var results map[string]qtv.Result
	if withURLs {
		results = s.client.DemoURLsPerAddress(ctx, addresses, s.httpTimeout)
	} else {
		results = s.client.DemoFilenamesPerAddress(ctx, addresses, s.httpTimeout)
	}

	writeJSON(w, http.StatusOK, models.NewDemoReports(results, withURLs))
}

// requestContext derives the fan-out context of r, bounded by the request timeout when set.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}

	return context.WithTimeout(r.Context(), s.requestTimeout)
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

// addresses reads and validates the address query params, writing an error response on failure.
func (s *Server) addresses(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	addresses := r.URL.Query()["address"]

	if len(addresses) == 0 {
		writeError(w, http.StatusBadRequest, "missing address")
		return nil, false
	}

	if s.maxAddresses > 0 && len(addresses) > s.maxAddresses {
		writeError(w, http.StatusBadRequest, "too many addresses")
		return nil, false
	}

	for _, address := range addresses {
		if address == "" {
			writeError(w, http.StatusBadRequest, "empty address")
			return nil, false
		}
		if !s.isAllowed(address) {
			log.Debug().
				Str("address", address).
				Str("ip", GetRealIP(r, s.trustProxy)).
				Msg("Address not allowed")

			writeError(w, http.StatusForbidden, "address not allowed: "+address)
			return nil, false
		}
	}

	return addresses, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
