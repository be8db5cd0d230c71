package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// RunPurger calls PurgeExpired on every target once per interval until ctx
// is done. onPurge, when non-nil, receives the number of entries removed in
// each round. It blocks; run it in its own goroutine.
func RunPurger(
	ctx context.Context,
	clock clockwork.Clock,
	interval time.Duration,
	onPurge func(removed int),
	targets ...Purger,
) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			removed := 0
			for _, t := range targets {
				removed += t.PurgeExpired()
			}
			if onPurge != nil {
				onPurge(removed)
			}
		}
	}
}
