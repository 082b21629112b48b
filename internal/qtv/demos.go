package qtv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DemoExtension is the suffix of demo files published by QTV servers.
const DemoExtension = ".mvd"

// DefaultMaxListingSize caps the demo listing body read from a server.
const DefaultMaxListingSize int64 = 4 << 20

// DemoFilenamesURL returns the URL of the plain text demo listing of a server.
func DemoFilenamesURL(address string) string {
	return fmt.Sprintf("http://%s/demo_filenames", address)
}

// FilenameToURL returns the download URL of a demo.
func FilenameToURL(address, filename string) string {
	return fmt.Sprintf("http://%s/dl/demos/%s", address, filename)
}

// DemoFilenames fetches the demo listing of a single server and returns
// the .mvd entries in the order the server reported them.
// A zero timeout falls back to DefaultHTTPTimeout.
func (c *Client) DemoFilenames(ctx context.Context, address string, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	url := DemoFilenamesURL(address)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetchErr := func(err error) *FetchError {
		return &FetchError{URL: url, Elapsed: time.Since(start), Limit: timeout, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fetchErr(err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fetchErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchErr(&HTTPStatusError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode})
	}

	limit := c.MaxListingSize
	if limit <= 0 {
		limit = DefaultMaxListingSize
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fetchErr(fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > limit {
		return nil, fetchErr(fmt.Errorf("%w: more than %d bytes", ErrListingTooLarge, limit))
	}

	filenames := make([]string, 0)
	for _, token := range strings.Fields(string(body)) {
		if strings.HasSuffix(token, DemoExtension) {
			filenames = append(filenames, token)
		}
	}

	log.Trace().
		Str("url", url).
		Int("count", len(filenames)).
		Dur("duration", time.Since(start)).
		Msg("Demo listing fetched")

	return filenames, nil
}

// DemoURLs is DemoFilenames mapped through FilenameToURL.
func (c *Client) DemoURLs(ctx context.Context, address string, timeout time.Duration) ([]string, error) {
	filenames, err := c.DemoFilenames(ctx, address, timeout)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(filenames))
	for i, filename := range filenames {
		urls[i] = FilenameToURL(address, filename)
	}

	return urls, nil
}
