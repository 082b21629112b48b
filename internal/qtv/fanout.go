package qtv

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of a demo listing for one address.
// Demos holds filenames or download URLs depending on the call.
type Result struct {
	Err   error
	Demos []string
}

// InfoResult is the outcome of a status query for one address.
type InfoResult struct {
	Err  error
	Info *Info
}

// DemoFilenamesPerAddress fetches the demo listing of every address concurrently
// and waits for all of them. A failing address is recorded in its own Result and
// never affects the others. Duplicate addresses collapse into one key.
func (c *Client) DemoFilenamesPerAddress(ctx context.Context, addresses []string, timeout time.Duration) map[string]Result {
	return c.fanOut(ctx, addresses, func(ctx context.Context, address string) ([]string, error) {
		return c.DemoFilenames(ctx, address, timeout)
	})
}

// DemoURLsPerAddress is DemoFilenamesPerAddress with every filename mapped to its download URL.
func (c *Client) DemoURLsPerAddress(ctx context.Context, addresses []string, timeout time.Duration) map[string]Result {
	return c.fanOut(ctx, addresses, func(ctx context.Context, address string) ([]string, error) {
		return c.DemoURLs(ctx, address, timeout)
	})
}

func (c *Client) fanOut(
	ctx context.Context,
	addresses []string,
	fetch func(ctx context.Context, address string) ([]string, error),
) map[string]Result {
	var (
		store sync.Map
		wg    sync.WaitGroup
	)

	start := time.Now()
	for _, address := range addresses {
		wg.Add(1)
		go func() {
			defer wg.Done()

			demos, err := fetch(ctx, address)
			if err != nil {
				log.Debug().Err(err).Str("address", address).Msg("Demo listing failed")
			}
			store.Store(address, Result{Demos: demos, Err: err})
		}()
	}
	wg.Wait()

	results := make(map[string]Result, len(addresses))
	store.Range(func(key, value any) bool {
		results[key.(string)] = value.(Result)
		return true
	})

	log.Debug().
		Int("addresses", len(addresses)).
		Dur("duration", time.Since(start)).
		Msg("Demo listings collected")

	return results
}

// InfoPerAddress queries the status of every address using a pool of workers.
// A workers value below one means one worker per address.
func (c *Client) InfoPerAddress(ctx context.Context, addresses []string, timeout time.Duration, workers int) map[string]InfoResult {
	if workers < 1 || workers > len(addresses) {
		workers = len(addresses)
	}

	jobs := make(chan string, len(addresses))
	results := make(map[string]InfoResult, len(addresses))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for address := range jobs {
				info, err := c.Info(ctx, address, timeout)
				if err != nil {
					log.Debug().Err(err).Str("address", address).Msg("Status query failed")
				}

				mu.Lock()
				results[address] = InfoResult{Info: info, Err: err}
				mu.Unlock()
			}
		}()
	}

	for _, address := range addresses {
		jobs <- address
	}
	close(jobs)

	wg.Wait()

	return results
}
