// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/qtvstat/internal/logger"
	"github.com/woozymasta/qtvstat/internal/vars"
)

// Commands supported as the first positional argument.
const (
	CommandInfo  = "info"
	CommandDemos = "demos"
	CommandURLs  = "urls"
	CommandServe = "serve"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Query     Query         `group:"Query Options" namespace:"query" env-namespace:"QTVSTAT_QUERY"`
	HTTP      HTTP          `group:"HTTP Options" namespace:"http" env-namespace:"QTVSTAT_HTTP"`
	Server    Server        `group:"Server Options" env-namespace:"QTVSTAT"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"QTVSTAT_RATE_LIMIT"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"QTVSTAT_GEOIP"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"QTVSTAT_LOG"`

	Args Args `positional-args:"yes"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Args holds the positional arguments.
type Args struct {
	Command   string   `positional-arg-name:"command" description:"One of: info, demos, urls, serve"`
	Addresses []string `positional-arg-name:"address" description:"QTV server address (host:port)"`
}

// Query holds UDP status query configuration.
type Query struct {
	// betteralign:ignore

	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Status query timeout" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Status reply buffer size" default:"1400"`
	Workers    int           `long:"workers" env:"WORKERS" description:"Concurrent status queries" default:"10"`
}

// HTTP holds demo listing configuration.
type HTTP struct {
	Timeout time.Duration `long:"timeout" env:"TIMEOUT" description:"Demo listing request timeout" default:"5s"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address          string   `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AllowedAddresses []string      `short:"a" long:"allowed-address" env:"ALLOWED_ADDRESSES" description:"QTV addresses the API may query" env-delim:","`
	AllowAnyAddress  bool          `long:"allow-any-address" env:"ALLOW_ANY_ADDRESS" description:"Let the API query any address, ignoring the allow-list"`
	MaxAddresses     int           `long:"max-addresses" env:"MAX_ADDRESSES" description:"Max addresses per API request" default:"64"`
	RequestTimeout   time.Duration `long:"request-timeout" env:"REQUEST_TIMEOUT" description:"Deadline for answering one API request" default:"15s"`
	TrustProxy       bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Path string `short:"g" long:"path" env:"PATH" description:"Path to MMDB file, country lookup disabled if empty"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	Count  int           `long:"count" env:"COUNT" description:"Requests allowed per client IP within window" default:"30"`
	Window time.Duration `long:"window" env:"WINDOW" description:"Rate limit window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	return &cfg
}

// Validate checks the command and its arguments.
func (c *Config) Validate() error {
	switch c.Args.Command {
	case CommandInfo, CommandDemos, CommandURLs:
		if len(c.Args.Addresses) == 0 {
			return fmt.Errorf("command %q requires at least one address", c.Args.Command)
		}
	case CommandServe:
		if c.RateLimit.Count < 1 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit count and window must be positive")
		}
		if c.Server.RequestTimeout <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		if len(c.Server.AllowedAddresses) == 0 && !c.Server.AllowAnyAddress {
			return fmt.Errorf("command %q requires --allowed-address or --allow-any-address", CommandServe)
		}
	case "":
		return fmt.Errorf("command is required")
	default:
		return fmt.Errorf("unknown command %q", c.Args.Command)
	}

	return nil
}
