// Package commands runs the one-shot CLI commands and prints their reports.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/qtvstat/internal/config"
	"github.com/woozymasta/qtvstat/internal/geoip"
	"github.com/woozymasta/qtvstat/internal/models"
	"github.com/woozymasta/qtvstat/internal/qtv"
)

// Runner executes a command against the configured addresses.
type Runner struct {
	Client *qtv.Client
	GeoIP  *geoip.Provider
	Out    io.Writer
	Config *config.Config
}

// Run dispatches the configured command. It returns an error only for
// an unknown command or a failed write; per-address failures are part of the report.
func (r *Runner) Run(ctx context.Context) error {
	addresses := r.Config.Args.Addresses

	switch r.Config.Args.Command {
	case config.CommandInfo:
		return r.info(ctx, addresses)
	case config.CommandDemos:
		return r.demos(ctx, addresses, false)
	case config.CommandURLs:
		return r.demos(ctx, addresses, true)
	default:
		return fmt.Errorf("unsupported command %q", r.Config.Args.Command)
	}
}

func (r *Runner) info(ctx context.Context, addresses []string) error {
	log.Debug().Int("count", len(addresses)).Msg("Querying QTV status...")

	results := r.Client.InfoPerAddress(ctx, addresses, r.Config.Query.Timeout, r.Config.Query.Workers)
	reports := models.NewStatusReports(results)
	codes := r.GeoIP.CountryCodes(ctx, addresses)
	for i := range reports {
		reports[i].CountryCode = codes[reports[i].Address]
	}

	failed := 0
	for _, report := range reports {
		if report.Error != "" {
			failed++
			continue
		}
		log.Debug().Str("address", report.Address).Stringer("info", report.Info).Msg("QTV status")
	}
	log.Debug().Int("failed", failed).Msg("Status queries completed")

	return r.print(reports)
}

func (r *Runner) demos(ctx context.Context, addresses []string, withURLs bool) error {
	log.Debug().Int("count", len(addresses)).Msg("Fetching demo listings...")

	var results map[string]qtv.Result
	if withURLs {
		results = r.Client.DemoURLsPerAddress(ctx, addresses, r.Config.HTTP.Timeout)
	} else {
		results = r.Client.DemoFilenamesPerAddress(ctx, addresses, r.Config.HTTP.Timeout)
	}

	return r.print(models.NewDemoReports(results, withURLs))
}

func (r *Runner) print(v any) error {
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
