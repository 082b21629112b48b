// Package geoip resolves QTV server addresses to ISO country codes using a MaxMind database.
package geoip

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// lookupTimeout bounds host name resolution of a single address.
const lookupTimeout = 2 * time.Second

// Provider wraps the GeoIP2 database reader to provide country lookup functionality.
// A nil Provider answers every lookup with an empty code.
type Provider struct {
	db       *geoip2.Reader
	resolver *net.Resolver
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db, resolver: net.DefaultResolver}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}

	return p.db.Close()
}

// CountryCode looks up the ISO country code (e.g., "SE", "DE") of a host or host:port address.
// Host names are resolved first. It returns an empty string if the country cannot be determined.
func (p *Provider) CountryCode(ctx context.Context, address string) string {
	if p == nil {
		return ""
	}

	ip := p.resolve(ctx, address)
	if ip == nil {
		return ""
	}

	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}

// CountryCodes looks up every address concurrently and returns the codes keyed by address.
// Addresses without a known country are left out. A nil Provider returns an empty map.
func (p *Provider) CountryCodes(ctx context.Context, addresses []string) map[string]string {
	codes := make(map[string]string, len(addresses))
	if p == nil {
		return codes
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, address := range addresses {
		wg.Add(1)
		go func() {
			defer wg.Done()

			code := p.CountryCode(ctx, address)
			if code == "" {
				return
			}

			mu.Lock()
			codes[address] = code
			mu.Unlock()
		}()
	}
	wg.Wait()

	return codes
}

func (p *Provider) resolve(ctx context.Context, address string) net.IP {
	host := SplitHost(address)
	if ip := net.ParseIP(host); ip != nil {
		return ip
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	addrs, err := p.resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return nil
	}

	return addrs[0].IP
}

// SplitHost strips an optional port from address.
func SplitHost(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}

	return host
}
