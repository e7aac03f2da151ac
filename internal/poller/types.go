// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/sign-controller/internal/protocol"
)

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	SignID string
	At     time.Time

	// Raw is copied verbatim from the link; empty on silence.
	Raw []byte

	Ack protocol.Ack
	Err error // non-nil means the read or the decode failed
}

// Notable reports whether the result carries anything beyond silence.
func (r PollResult) Notable() bool {
	return r.Err != nil || r.Ack.Kind != protocol.AckNone
}
