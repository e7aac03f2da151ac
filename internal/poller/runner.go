// internal/poller/runner.go
package poller

import (
	"context"
)

// Run starts the ticker loop and emits notable PollResults on out.
// One goroutine per sign. No overlap. No retries.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			res := p.PollOnce()
			if !res.Notable() {
				continue
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}
