package qtv

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// StatusRequest is the out-of-band "status 87" query.
	StatusRequest = []byte("\xff\xff\xff\xffstatus 87")

	// statusHeader prefixes every valid status reply.
	statusHeader = []byte("\xff\xff\xff\xffn")
)

// Info sends a status query to address and parses the reply.
// A zero timeout leaves the bound to the transport's own default.
func (c *Client) Info(ctx context.Context, address string, timeout time.Duration) (*Info, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.UDP.SendAndRead(ctx, address, StatusRequest)
	if err != nil {
		return nil, &TransportError{
			Address: address,
			Elapsed: time.Since(start),
			Limit:   timeout,
			Err:     err,
		}
	}

	log.Trace().
		Str("address", address).
		Int("size", len(reply)).
		Dur("duration", time.Since(start)).
		Msg("Status reply received")

	return ParseStatusResponse(reply)
}

// ParseStatusResponse validates the reply header and decodes the key/value body.
// Invalid UTF-8 in the body is replaced, never rejected.
func ParseStatusResponse(reply []byte) (*Info, error) {
	if !bytes.HasPrefix(reply, statusHeader) {
		return nil, ErrHeaderMissing
	}

	text := strings.ToValidUTF8(string(reply[len(statusHeader):]), "\uFFFD")
	info := ParseInfo(text)

	return &info, nil
}
