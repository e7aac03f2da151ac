// internal/poller/builder.go
package poller

import (
	"github.com/jonboulle/clockwork"

	cfg "github.com/tamzrod/sign-controller/internal/config"
)

// Build constructs a Poller over the sign link.
// The link owns the connection lifecycle; the poller only reads.
// Returns (nil, nil) when transport.ack_poll is 0.
func Build(c *cfg.Config, r Reader, clock clockwork.Clock) (*Poller, error) {
	if c.Transport.AckPoll <= 0 {
		return nil, nil
	}
	return New(Config{
		SignID:   c.Sign.ID,
		Interval: c.Transport.AckPoll,
	}, r, clock)
}
