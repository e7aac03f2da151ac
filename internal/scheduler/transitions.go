// internal/scheduler/transitions.go
package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tamzrod/sign-controller/internal/memory"
	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/store"
)

// Tick processes every deadline that is due at the clock's current time.
func (s *Scheduler) Tick() {
	now := s.clock.Now()
	s.stepErr = nil

	switch s.state {
	case StatePriorityActive:
		p := s.priority
		if !p.warned && !p.warnAt.IsZero() && !now.Before(p.warnAt) {
			p.warned = true
			log.Info().
				Dur("remaining", p.expiry.Sub(now)).
				Msg("sign: priority message about to expire")
			s.report(ReportWarning, now)
		}
		if !now.Before(p.expiry) {
			log.Info().Msg("sign: priority message expired")
			s.endPriority(now)
			s.report(ReportTransition, now)
		}

	case StateClockShowing:
		if !now.Before(s.clockEnd) {
			s.clockEnd = time.Time{}
			s.resumeBase(now)
			s.report(ReportTransition, now)
		}

	case StateRotatingOffline, StateShowingDefault:
		if s.clockDue(now) {
			s.saveResume(now)
			s.showClock(now)
			s.report(ReportTransition, now)
			return
		}
		if s.state == StateRotatingOffline && !now.Before(s.offlineDeadline) {
			s.advance(now)
			s.report(ReportTransition, now)
		}
	}
}

// ---- base states ----

// enterBase shows offline[index] (or the default message when there are no
// offline messages). remaining > 0 keeps a partially consumed display time.
func (s *Scheduler) enterBase(now time.Time, index int, remaining time.Duration) {
	n := len(s.policy.Offline)
	if n == 0 {
		s.state = StateShowingDefault
		s.index = 0
		s.offlineDeadline = time.Time{}
		s.show(memory.DefaultRole(), s.policy.Default)
		return
	}

	if index < 0 || index >= n {
		index = 0
	}
	m := s.policy.Offline[index]
	if remaining <= 0 || remaining > m.Duration {
		remaining = m.Duration
	}

	s.state = StateRotatingOffline
	s.index = index
	s.offlineDeadline = now.Add(remaining)
	s.show(memory.OfflineRole(index), m)
}

// advance moves the rotation to the next message. The new deadline is
// measured from the old one so rotation does not drift.
func (s *Scheduler) advance(now time.Time) {
	n := len(s.policy.Offline)
	s.index = (s.index + 1) % n
	m := s.policy.Offline[s.index]

	next := s.offlineDeadline.Add(m.Duration)
	if !next.After(now) {
		next = now.Add(m.Duration)
	}
	s.offlineDeadline = next
	s.show(memory.OfflineRole(s.index), m)
}

func (s *Scheduler) saveResume(now time.Time) {
	switch s.state {
	case StateRotatingOffline:
		s.resume = resumePoint{
			state:     StateRotatingOffline,
			index:     s.index,
			remaining: s.offlineDeadline.Sub(now),
		}
	case StateShowingDefault:
		s.resume = resumePoint{state: StateShowingDefault}
	}
}

// freshResume points the resume target at offline[index], or at the start
// of the list when index is out of range.
func (s *Scheduler) freshResume(index int) {
	n := len(s.policy.Offline)
	if n == 0 {
		s.resume = resumePoint{state: StateShowingDefault}
		return
	}
	if index < 0 || index >= n {
		index = 0
	}
	s.resume = resumePoint{
		state:     StateRotatingOffline,
		index:     index,
		remaining: s.policy.Offline[index].Duration,
	}
}

func (s *Scheduler) resumeBase(now time.Time) {
	r := s.resume
	s.resume = resumePoint{}

	if r.state == StateRotatingOffline && r.remaining <= 0 {
		if n := len(s.policy.Offline); n > 0 {
			s.enterBase(now, (r.index+1)%n, 0)
			return
		}
	}
	s.enterBase(now, r.index, r.remaining)
}

// ---- clock ----

func (s *Scheduler) clockDue(now time.Time) bool {
	return s.policy.Clock.Enabled && !s.clockDeadline.IsZero() && !now.Before(s.clockDeadline)
}

func (s *Scheduler) showClock(now time.Time) {
	s.state = StateClockShowing
	s.clockEnd = now.Add(s.policy.Clock.Duration)
	s.clockDeadline = now.Add(s.policy.Clock.Interval)
	s.show(memory.ClockRole(), s.policy.ClockMessage())
}

// ---- priority ----

func (s *Scheduler) showPriority(text string, d time.Duration, attrs *protocol.Attributes) error {
	m := s.policy.PriorityMessage(text, d)
	if attrs != nil {
		m.Attributes = *attrs
	}

	label, _ := s.alloc.Lookup(memory.PriorityRole())
	if _, err := s.enc.EncodeWrite(label, m.Attributes, m.Text); err != nil {
		return err
	}

	now := s.clock.Now()
	s.stepErr = nil

	switch s.state {
	case StateRotatingOffline, StateShowingDefault:
		s.saveResume(now)
	case StateClockShowing:
		// The clock display is abandoned; its own resume target stands.
		s.clockEnd = time.Time{}
	}

	p := &priorityState{msg: m, expiry: now.Add(m.Duration)}
	if w := s.policy.Priority.Warning; w > 0 && w < m.Duration {
		p.warnAt = p.expiry.Add(-w)
	}
	s.priority = p
	s.state = StatePriorityActive
	s.show(memory.PriorityRole(), m)

	log.Info().
		Str("text", m.Text).
		Dur("duration", m.Duration).
		Msg("sign: priority message shown")
	s.report(ReportTransition, now)
	return nil
}

func (s *Scheduler) cancelPriority() {
	if s.state != StatePriorityActive {
		return
	}
	now := s.clock.Now()
	s.stepErr = nil

	log.Info().Msg("sign: priority message cancelled")
	s.endPriority(now)
	s.report(ReportTransition, now)
}

// endPriority leaves the priority state. A clock display that came due
// while the priority message was up runs now, once.
func (s *Scheduler) endPriority(now time.Time) {
	s.priority = nil
	if s.clockDue(now) {
		s.showClock(now)
		return
	}
	s.resumeBase(now)
}

// ---- wholesale replacements ----

func (s *Scheduler) replaceOffline(msgs []store.Message, start int) error {
	next, err := s.policy.WithOffline(msgs)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	s.stepErr = nil
	s.installPolicy(next)

	switch s.state {
	case StatePriorityActive, StateClockShowing:
		s.freshResume(start)
		log.Info().
			Int("count", len(msgs)).
			Msg("sign: offline messages replaced, applied after current display")
	default:
		s.enterBase(now, start, 0)
		log.Info().Int("count", len(msgs)).Msg("sign: offline messages replaced")
	}
	s.report(ReportTransition, now)
	return nil
}

func (s *Scheduler) reconfigure(p store.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}

	prev := s.policy
	identity := p.SignType != prev.SignType || p.Address != prev.Address || p.FileSize != prev.FileSize
	resize := p.MaxFiles != prev.MaxFiles

	if identity {
		enc, err := p.Encoder()
		if err != nil {
			return err
		}
		s.enc = enc
	}
	if resize {
		alloc, err := memory.New(p.MaxFiles)
		if err != nil {
			return err
		}
		s.alloc = alloc
	}

	now := s.clock.Now()
	s.stepErr = nil
	s.installPolicy(p)

	rewrite := identity || resize
	if rewrite {
		s.configureMemory()
		s.syncTime(now)
	} else if p.Clock.H24 != prev.Clock.H24 {
		if err := s.out.send(s.enc.EncodeTimeFormat(p.Clock.H24)); err != nil {
			s.fault(err)
		}
	}

	clockChanged := p.Clock != prev.Clock
	if clockChanged {
		s.clockDeadline = time.Time{}
		if p.Clock.Enabled {
			s.clockDeadline = now.Add(p.Clock.Interval)
		}
	}

	switch s.state {
	case StatePriorityActive:
		s.freshResume(0)
		if rewrite {
			s.show(memory.PriorityRole(), s.priority.msg)
		}
	case StateClockShowing:
		s.freshResume(0)
		switch {
		case !p.Clock.Enabled:
			s.clockEnd = time.Time{}
			s.resumeBase(now)
		case rewrite || clockChanged:
			s.show(memory.ClockRole(), s.policy.ClockMessage())
		}
	default:
		s.enterBase(now, 0, 0)
	}

	log.Info().
		Int("max_files", p.MaxFiles).
		Int("offline", len(p.Offline)).
		Bool("clock", p.Clock.Enabled).
		Msg("sign: policy reconfigured")
	s.report(ReportTransition, now)
	return nil
}

// installPolicy swaps the policy and frees slots of offline roles that no
// longer exist.
func (s *Scheduler) installPolicy(p store.Policy) {
	old := len(s.policy.Offline)
	s.policy = p
	for i := len(p.Offline); i < old; i++ {
		s.alloc.Release(memory.OfflineRole(i))
	}
}

// ---- maintenance ----

// clear blanks the sign memory, re-creates the slot table and re-shows
// whatever is current.
func (s *Scheduler) clear() {
	now := s.clock.Now()
	s.stepErr = nil

	if frame, err := s.enc.EncodeClear(protocol.AllSlots); err != nil {
		s.fault(err)
	} else if err := s.out.send(frame); err != nil {
		s.fault(err)
	}
	s.configureMemory()

	switch s.state {
	case StatePriorityActive:
		s.show(memory.PriorityRole(), s.priority.msg)
	case StateClockShowing:
		s.show(memory.ClockRole(), s.policy.ClockMessage())
	case StateRotatingOffline:
		s.show(memory.OfflineRole(s.index), s.policy.Offline[s.index])
	default:
		s.show(memory.DefaultRole(), s.policy.Default)
	}

	log.Info().Msg("sign: memory cleared")
	s.report(ReportTransition, now)
}

func (s *Scheduler) sendTime() {
	now := s.clock.Now()
	s.stepErr = nil
	s.syncTime(now)
	if s.stepErr != nil {
		s.report(ReportFault, now)
	}
}
