package realtime

import (
	"context"
	"time"
)

// Coalesce turns a burst of vote events into a single re-tally signal.
// The first event of a burst starts the window; everything arriving
// before it elapses is absorbed into the same signal. This is the
// backpressure between vote velocity and re-render rate: a viewer never
// sees more than one recompute per window, no matter how fast votes land.
//
// The returned channel closes when ctx is done or the input closes.
func Coalesce(ctx context.Context, in <-chan VoteEvent, window time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-in:
				if !ok {
					return
				}
				if fire == nil {
					timer = time.NewTimer(window)
					fire = timer.C
				}
			case <-fire:
				timer.Stop()
				timer = nil
				fire = nil
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
