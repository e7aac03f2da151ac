// internal/poller/poller.go
package poller

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tamzrod/sign-controller/internal/protocol"
)

// Reader abstracts the inbound half of the sign link. A read that times
// out with nothing returns (0, nil).
type Reader interface {
	Read(p []byte) (int, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	SignID   string
	Interval time.Duration

	// BufferSize bounds one read; defaults to 256.
	BufferSize int
}

// Poller is a dumb, clock-driven reader of acknowledgments.
type Poller struct {
	cfg   Config
	r     Reader
	clock clockwork.Clock
	buf   []byte
}

// New creates a poller with immutable config. A nil clock uses real time.
func New(cfg Config, r Reader, clock clockwork.Clock) (*Poller, error) {
	if cfg.SignID == "" {
		return nil, errors.New("poller: sign id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if r == nil {
		return nil, errors.New("poller: reader required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{cfg: cfg, r: r, clock: clock, buf: make([]byte, cfg.BufferSize)}, nil
}

// PollOnce performs exactly one read and decodes whatever arrived.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		SignID: p.cfg.SignID,
		At:     p.clock.Now(),
	}

	n, err := p.r.Read(p.buf)
	if n > 0 {
		res.Raw = append([]byte(nil), p.buf[:n]...)
	}
	if err != nil {
		res.Err = err
		return res
	}

	res.Ack, res.Err = protocol.DecodeAck(res.Raw)
	return res
}
