package bridge

import (
	"context"
	"testing"
	"time"
)

func TestSourcePollerRunWithoutSources(t *testing.T) {
	poller := NewSourcePoller(newTestBridge(), nil)

	// A registry with no polled sources is valid config (bus-only ingest), so
	// the poller has to return cleanly instead of bringing the process down
	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not return with an empty source list")
	}
}
