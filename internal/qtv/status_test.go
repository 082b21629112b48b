package qtv

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/qtvstat/internal/udp"
)

type fakeTransport struct {
	err         error
	reply       []byte
	payload     []byte
	address     string
	hasDeadline bool
}

func (f *fakeTransport) SendAndRead(ctx context.Context, address string, payload []byte) ([]byte, error) {
	f.address = address
	f.payload = payload
	_, f.hasDeadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}

	return f.reply, nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestStatusRequest(t *testing.T) {
	want := []byte{0xff, 0xff, 0xff, 0xff, 's', 't', 'a', 't', 'u', 's', ' ', '8', '7'}
	assert.Equal(t, want, StatusRequest)
}

func TestParseStatusResponse(t *testing.T) {
	_, err := ParseStatusResponse([]byte(`\invalid\response`))
	require.Error(t, err)
	assert.Equal(t, "header is missing", err.Error())

	reply := append([]byte{0xff, 0xff, 0xff, 0xff}, []byte(`n\*version\QTV 1.14\maxclients\100\hostname\QUAKE.SE KTX Qtv`)...)
	info, err := ParseStatusResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, &Info{
		Hostname:   strPtr("QUAKE.SE KTX Qtv"),
		MaxClients: intPtr(100),
		Version:    strPtr("QTV 1.14"),
	}, info)
}

func TestParseStatusResponseHeader(t *testing.T) {
	invalid := map[string][]byte{
		"empty":         nil,
		"short":         {0xff, 0xff, 0xff, 0xff},
		"wrong marker":  {0xff, 0xff, 0xff, 0xff, 'm', '\\', 'a'},
		"three ff":      {0xff, 0xff, 0xff, 'n'},
		"leading space": append([]byte{' '}, statusHeader...),
		"text":          []byte("status 87"),
	}
	for name, reply := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStatusResponse(reply)
			var protoErr *ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.Equal(t, "header is missing", protoErr.Error())
		})
	}

	valid := map[string][]byte{
		"header only":  statusHeader,
		"invalid utf8": append(append([]byte{}, statusHeader...), 0xc3, 0x28, '\\', 'x'),
		"garbage":      append(append([]byte{}, statusHeader...), 0x00, 0xfe, 0xff),
	}
	for name, reply := range valid {
		t.Run(name, func(t *testing.T) {
			info, err := ParseStatusResponse(reply)
			require.NoError(t, err)
			assert.NotNil(t, info)
		})
	}
}

func TestParseStatusResponseLossy(t *testing.T) {
	reply := append(append([]byte{}, statusHeader...), []byte("\\hostname\\bad\xffname")...)
	info, err := ParseStatusResponse(reply)
	require.NoError(t, err)
	require.NotNil(t, info.Hostname)
	assert.Equal(t, "bad\uFFFDname", *info.Hostname)
}

func TestClientInfo(t *testing.T) {
	transport := &fakeTransport{
		reply: append(append([]byte{}, statusHeader...), []byte(`\hostname\test qtv\maxclients\32`)...),
	}
	client := New(transport, nil)

	info, err := client.Info(context.Background(), "qtv.example.com:28000", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "qtv.example.com:28000", transport.address)
	assert.Equal(t, StatusRequest, transport.payload)
	assert.Equal(t, "test qtv", *info.Hostname)
	assert.Equal(t, 32, *info.MaxClients)
	assert.Nil(t, info.Version)
}

func TestClientInfoTransportError(t *testing.T) {
	client := New(&fakeTransport{err: os.ErrDeadlineExceeded}, nil)

	_, err := client.Info(context.Background(), "qtv.example.com:28000", 250*time.Millisecond)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Timeout())
	assert.Equal(t, 250*time.Millisecond, transportErr.Limit)
	assert.Contains(t, err.Error(), "qtv.example.com:28000")
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
}

func TestClientInfoBadHeader(t *testing.T) {
	client := New(&fakeTransport{reply: []byte("garbage")}, nil)

	_, err := client.Info(context.Background(), "qtv.example.com:28000", time.Second)
	require.ErrorIs(t, err, ErrHeaderMissing)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Same(t, ErrHeaderMissing, protoErr)
	assert.Equal(t, "header is missing", protoErr.Error())
}

func TestClientInfoDeadline(t *testing.T) {
	reply := append(append([]byte{}, statusHeader...), []byte(`\hostname\q`)...)

	transport := &fakeTransport{reply: reply}
	client := New(transport, nil)

	_, err := client.Info(context.Background(), "qtv.example.com:28000", time.Second)
	require.NoError(t, err)
	assert.True(t, transport.hasDeadline)

	// zero leaves the bound to the transport
	_, err = client.Info(context.Background(), "qtv.example.com:28000", 0)
	require.NoError(t, err)
	assert.False(t, transport.hasDeadline)
}

func TestClientInfoTransportDefaultTimeout(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	client := New(udp.New(udp.Options{Timeout: 50 * time.Millisecond}), nil)

	start := time.Now()
	_, err = client.Info(context.Background(), conn.LocalAddr().String(), 0)
	elapsed := time.Since(start)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Timeout())
	assert.Zero(t, transportErr.Limit)
	assert.Contains(t, err.Error(), "transport timeout")
	assert.Less(t, elapsed, time.Second)
}

func TestClientInfoLoopback(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	go func() {
		buf := make([]byte, 64)
		n, addr, err := conn.ReadFrom(buf)
		if err != nil || string(buf[:n]) != string(StatusRequest) {
			return
		}
		_, _ = conn.WriteTo([]byte("\xff\xff\xff\xffn\\*version\\QTV 1.14\\hostname\\loopback\n"), addr)
	}()

	client := New(udp.New(udp.Options{}), nil)
	info, err := client.Info(context.Background(), conn.LocalAddr().String(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "loopback", *info.Hostname)
	assert.Equal(t, "QTV 1.14", *info.Version)
	assert.Nil(t, info.MaxClients)
}
