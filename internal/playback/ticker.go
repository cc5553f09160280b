package playback

import (
	"context"
	"time"
)

// DefaultTickInterval matches a 10Hz display refresh.
const DefaultTickInterval = 100 * time.Millisecond

// Every calls fn once per interval until ctx is done. It registers a single
// ticker for its whole lifetime; cancel ctx to stop it.
func Every(ctx context.Context, interval time.Duration, fn func(time.Time)) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now)
		}
	}
}
