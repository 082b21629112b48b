package qtv

import (
	"fmt"
	"strconv"
	"strings"
)

// Info is the status of a QTV server. Every field is optional because
// the server reports a sparse key/value list.
type Info struct {
	Hostname   *string `json:"hostname,omitempty"`
	MaxClients *int    `json:"maxclients,omitempty"`
	Version    *string `json:"version,omitempty"`
}

// ParseInfo reads a backslash delimited key/value list such as
// `\*version\QTV 1.14\maxclients\100\hostname\QUAKE.SE KTX Qtv`.
// Anything before the first delimiter is ignored, so are unknown keys.
func ParseInfo(text string) Info {
	var info Info

	text = strings.TrimRight(text, "\n\x00")
	tokens := strings.Split(text, `\`)

	// tokens[0] precedes the first delimiter
	for i := 1; i+1 < len(tokens); i += 2 {
		key := strings.TrimPrefix(tokens[i], "*")
		value := tokens[i+1]

		switch key {
		case "hostname":
			info.Hostname = &value
		case "version":
			info.Version = &value
		case "maxclients":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				info.MaxClients = &n
			}
		}
	}

	return info
}

// String renders a one-line summary, absent fields are shown as "-".
func (i Info) String() string {
	hostname, version, maxClients := "-", "-", "-"
	if i.Hostname != nil {
		hostname = *i.Hostname
	}
	if i.Version != nil {
		version = *i.Version
	}
	if i.MaxClients != nil {
		maxClients = strconv.Itoa(*i.MaxClients)
	}

	return fmt.Sprintf("%s (version: %s, maxclients: %s)", hostname, version, maxClients)
}
