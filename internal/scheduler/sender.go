// internal/scheduler/sender.go
package scheduler

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/sign-controller/internal/transport"
)

// sender pushes frames with a single retry. A frame that fails twice is
// dropped; the caller keeps scheduling.
type sender struct {
	tr    transport.Transport
	clock clockwork.Clock
	gap   time.Duration

	sent    uint64
	dropped uint64
}

func (s *sender) send(frame []byte) error {
	err := s.tr.Send(frame)
	if err != nil {
		log.Warn().Err(err).Msg("sign: frame send failed, retrying once")
		err = s.tr.Send(frame)
	}
	if err != nil {
		s.dropped++
		log.Error().Err(err).Int("bytes", len(frame)).Msg("sign: frame dropped")
		return err
	}

	s.sent++
	if s.gap > 0 {
		s.clock.Sleep(s.gap)
	}
	return nil
}
