package qtv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoFilenamesPerAddress(t *testing.T) {
	client := New(nil, &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Host {
		case "h1":
			time.Sleep(30 * time.Millisecond)
			return textResponse(req, http.StatusOK, "one.mvd"), nil
		case "h2":
			return nil, errors.New("unreachable")
		default:
			return textResponse(req, http.StatusOK, "three.mvd\nthree.txt"), nil
		}
	})})

	results := client.DemoFilenamesPerAddress(context.Background(), []string{"h1", "h2", "h3"}, time.Second)
	require.Len(t, results, 3)

	require.NoError(t, results["h1"].Err)
	assert.Equal(t, []string{"one.mvd"}, results["h1"].Demos)

	var fetchErr *FetchError
	assert.ErrorAs(t, results["h2"].Err, &fetchErr)
	assert.Nil(t, results["h2"].Demos)

	require.NoError(t, results["h3"].Err)
	assert.Equal(t, []string{"three.mvd"}, results["h3"].Demos)
}

func TestDemoFilenamesPerAddressConcurrent(t *testing.T) {
	const (
		count = 20
		delay = 100 * time.Millisecond
	)

	client := New(nil, &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		time.Sleep(delay)
		return textResponse(req, http.StatusOK, req.URL.Host+".mvd"), nil
	})})

	addresses := make([]string, count)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("qtv%d.example.com", i)
	}

	start := time.Now()
	results := client.DemoFilenamesPerAddress(context.Background(), addresses, time.Second)
	elapsed := time.Since(start)

	require.Len(t, results, count)
	for _, address := range addresses {
		require.NoError(t, results[address].Err)
		assert.Equal(t, []string{address + ".mvd"}, results[address].Demos)
	}
	// sequential fetching would take count*delay
	assert.Less(t, elapsed, 5*delay)
}

func TestDemoFilenamesPerAddressTimeoutIsolation(t *testing.T) {
	client := New(nil, &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "slow" {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}
		return textResponse(req, http.StatusOK, "fast.mvd"), nil
	})})

	results := client.DemoFilenamesPerAddress(context.Background(), []string{"slow", "fast"}, 50*time.Millisecond)
	require.Len(t, results, 2)

	var fetchErr *FetchError
	require.ErrorAs(t, results["slow"].Err, &fetchErr)
	assert.True(t, fetchErr.Timeout())
	assert.NoError(t, results["fast"].Err)
	assert.Equal(t, []string{"fast.mvd"}, results["fast"].Demos)
}

func TestDemoFilenamesPerAddressDuplicates(t *testing.T) {
	var calls atomic.Int32
	client := New(nil, &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return textResponse(req, http.StatusOK, "a.mvd"), nil
	})})

	results := client.DemoFilenamesPerAddress(context.Background(), []string{"h1", "h1", "h2"}, time.Second)
	assert.Len(t, results, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDemoFilenamesPerAddressEmpty(t *testing.T) {
	results := New(nil, nil).DemoFilenamesPerAddress(context.Background(), nil, time.Second)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestDemoURLsPerAddress(t *testing.T) {
	client := New(nil, &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return textResponse(req, http.StatusOK, "a.mvd"), nil
	})})

	results := client.DemoURLsPerAddress(context.Background(), []string{"h1"}, time.Second)
	require.NoError(t, results["h1"].Err)
	assert.Equal(t, []string{"http://h1/dl/demos/a.mvd"}, results["h1"].Demos)
}

type addressTransport map[string][]byte

func (a addressTransport) SendAndRead(_ context.Context, address string, _ []byte) ([]byte, error) {
	reply, ok := a[address]
	if !ok {
		return nil, errors.New("no reply")
	}

	return reply, nil
}

func TestInfoPerAddress(t *testing.T) {
	transport := addressTransport{
		"ok:28000":  append(append([]byte{}, statusHeader...), []byte(`\hostname\ok`)...),
		"bad:28000": []byte("nope"),
	}
	client := New(transport, nil)

	results := client.InfoPerAddress(context.Background(), []string{"ok:28000", "bad:28000", "down:28000"}, time.Second, 2)
	require.Len(t, results, 3)

	require.NoError(t, results["ok:28000"].Err)
	assert.Equal(t, "ok", *results["ok:28000"].Info.Hostname)
	assert.ErrorIs(t, results["bad:28000"].Err, ErrHeaderMissing)

	var transportErr *TransportError
	assert.ErrorAs(t, results["down:28000"].Err, &transportErr)
}
