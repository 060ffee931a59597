package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/transitlive/transitlive/pkg/siri"
)

// SourcePoller polls each configured upstream on its own cadence. The
// in-flight tracker guarantees at most one outstanding poll per source - a
// tick firing while the previous poll is still running is a no-op, so a slow
// upstream never accumulates concurrent requests.
type SourcePoller struct {
	bridge  *Bridge
	sources []Source

	client   *http.Client
	inFlight sync.Map
}

func NewSourcePoller(bridge *Bridge, sources []Source) *SourcePoller {
	return &SourcePoller{
		bridge:  bridge,
		sources: sources,

		client: &http.Client{},
	}
}

// Run polls every source on its refresh cadence until the context ends.
func (p *SourcePoller) Run(ctx context.Context) {
	if len(p.sources) == 0 {
		// Bus-only deployment, nothing to poll
		log.Info().Msg("No sources configured, poller idle")
		return
	}

	runners := pool.New().WithMaxGoroutines(len(p.sources))

	for _, source := range p.sources {
		runners.Go(func() {
			log.Info().
				Str("source", source.Identifier).
				Str("refresh", source.Refresh.String()).
				Msg("Starting source poller")

			for {
				startTime := time.Now()

				p.poll(ctx, source)

				waitTime := source.Refresh - time.Since(startTime)
				if waitTime > 0 {
					select {
					case <-ctx.Done():
						return
					case <-time.After(waitTime):
					}
				}

				if ctx.Err() != nil {
					return
				}
			}
		})
	}

	runners.Wait()
}

func (p *SourcePoller) poll(ctx context.Context, source Source) {
	if _, alreadyRunning := p.inFlight.LoadOrStore(source.Identifier, true); alreadyRunning {
		log.Debug().Str("source", source.Identifier).Msg("Previous poll still in flight, skipping")
		return
	}
	defer p.inFlight.Delete(source.Identifier)

	var batch *siri.DeliveryBatch

	operation := func() error {
		fetched, err := p.fetch(ctx, source)
		if err != nil {
			return err
		}

		batch = fetched

		return nil
	}

	retryBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(operation, backoff.WithContext(retryBackoff, ctx)); err != nil {
		log.Error().Err(err).Str("source", source.Identifier).Msg("Failed to poll source")
		return
	}

	p.bridge.Ingest(batch)
}

func (p *SourcePoller) fetch(ctx context.Context, source Source) (*siri.DeliveryBatch, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", source.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s responded with status %d", source.Identifier, resp.StatusCode)
	}

	return siri.Parse(resp.Body, source.Identifier)
}
