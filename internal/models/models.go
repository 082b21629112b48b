// Package models defines the report structures printed by the CLI and served by the API.
package models

import (
	"sort"

	"github.com/woozymasta/qtvstat/internal/qtv"
)

// StatusReport is the status of one QTV server.
type StatusReport struct {
	Info        *qtv.Info `json:"info,omitempty"`
	Address     string    `json:"address"`
	CountryCode string    `json:"country_code,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// DemoReport is the demo listing of one QTV server.
type DemoReport struct {
	Address   string   `json:"address"`
	Error     string   `json:"error,omitempty"`
	Filenames []string `json:"filenames,omitempty"`
	URLs      []string `json:"urls,omitempty"`
}

// NewDemoReports converts fan-out results into reports sorted by address.
// Set asURLs when the results come from DemoURLsPerAddress.
func NewDemoReports(results map[string]qtv.Result, asURLs bool) []DemoReport {
	reports := make([]DemoReport, 0, len(results))
	for address, result := range results {
		report := DemoReport{Address: address}
		switch {
		case result.Err != nil:
			report.Error = result.Err.Error()
		case asURLs:
			report.URLs = result.Demos
		default:
			report.Filenames = result.Demos
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Address < reports[j].Address })

	return reports
}

// NewStatusReports converts status results into reports sorted by address.
func NewStatusReports(results map[string]qtv.InfoResult) []StatusReport {
	reports := make([]StatusReport, 0, len(results))
	for address, result := range results {
		report := StatusReport{Address: address, Info: result.Info}
		if result.Err != nil {
			report.Error = result.Err.Error()
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Address < reports[j].Address })

	return reports
}
