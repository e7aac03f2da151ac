// internal/scheduler/scheduler.go
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/sign-controller/internal/memory"
	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/store"
	"github.com/tamzrod/sign-controller/internal/transport"
)

// State is the arbiter's current display mode.
type State uint8

const (
	StateShowingDefault State = iota + 1
	StateRotatingOffline
	StatePriorityActive
	StateClockShowing
)

func (s State) String() string {
	switch s {
	case StateShowingDefault:
		return "showing_default"
	case StateRotatingOffline:
		return "rotating_offline"
	case StatePriorityActive:
		return "priority_active"
	case StateClockShowing:
		return "clock_showing"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Cursor is a copy of the scheduler's mutable position.
type Cursor struct {
	State           State
	Visible         byte
	Index           int
	OfflineDeadline time.Time
	ClockDeadline   time.Time
	PriorityExpiry  time.Time
}

// ReportKind tags a Report.
type ReportKind uint8

const (
	ReportTransition ReportKind = iota + 1
	ReportWarning
	ReportFault
)

func (k ReportKind) String() string {
	switch k {
	case ReportTransition:
		return "transition"
	case ReportWarning:
		return "warning"
	case ReportFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Report is emitted after every transition, priority warning or fault.
type Report struct {
	Kind              ReportKind
	At                time.Time
	Cursor            Cursor
	OfflineCount      int
	FramesSent        uint64
	FramesDropped     uint64
	PriorityRemaining time.Duration
	Err               error // last send failure of this step, nil if clean
}

// Options tune a Scheduler. Zero values select production defaults.
type Options struct {
	Clock clockwork.Clock

	// FrameGap is slept after every sent frame so slow signs keep up.
	// Negative disables pacing.
	FrameGap time.Duration

	ReportBuffer int
}

// DefaultFrameGap is the pause between frames on a real sign.
const DefaultFrameGap = 110 * time.Millisecond

type priorityState struct {
	msg    store.Message
	expiry time.Time
	warnAt time.Time // zero: no warning
	warned bool
}

// resumePoint is where control returns after a priority or clock display.
type resumePoint struct {
	state     State
	index     int
	remaining time.Duration
}

// Scheduler is the display arbiter. All transition methods must be called
// from a single goroutine; Run provides that loop.
type Scheduler struct {
	clock  clockwork.Clock
	policy store.Policy
	enc    *protocol.Encoder
	alloc  *memory.Allocator
	out    *sender

	state   State
	index   int
	visible byte

	offlineDeadline time.Time
	clockDeadline   time.Time
	clockEnd        time.Time

	priority *priorityState
	resume   resumePoint

	stepErr error

	requests chan request
	reports  chan Report
}

// New builds a scheduler for policy p writing to tr.
func New(p store.Policy, tr transport.Transport, opts Options) (*Scheduler, error) {
	if tr == nil {
		return nil, errors.New("scheduler: transport required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	enc, err := p.Encoder()
	if err != nil {
		return nil, err
	}
	alloc, err := memory.New(p.MaxFiles)
	if err != nil {
		return nil, err
	}

	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.FrameGap == 0 {
		opts.FrameGap = DefaultFrameGap
	}
	if opts.FrameGap < 0 {
		opts.FrameGap = 0
	}
	if opts.ReportBuffer <= 0 {
		opts.ReportBuffer = 16
	}

	return &Scheduler{
		clock:    opts.Clock,
		policy:   p,
		enc:      enc,
		alloc:    alloc,
		out:      &sender{tr: tr, clock: opts.Clock, gap: opts.FrameGap},
		requests: make(chan request),
		reports:  make(chan Report, opts.ReportBuffer),
	}, nil
}

// Reports delivers transition and fault reports. Slow readers miss reports;
// the scheduler never blocks on this channel.
func (s *Scheduler) Reports() <-chan Report { return s.reports }

// Cursor returns the current position. Loop goroutine only.
func (s *Scheduler) Cursor() Cursor {
	c := Cursor{
		State:           s.state,
		Visible:         s.visible,
		Index:           s.index,
		OfflineDeadline: s.offlineDeadline,
		ClockDeadline:   s.clockDeadline,
	}
	if s.priority != nil {
		c.PriorityExpiry = s.priority.expiry
	}
	return c
}

// Policy returns the policy in effect. Loop goroutine only.
func (s *Scheduler) Policy() store.Policy { return s.policy }

// NextDeadline returns the earliest instant at which Tick has work to do.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	var next time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}

	switch s.state {
	case StatePriorityActive:
		if s.priority != nil {
			if !s.priority.warned {
				consider(s.priority.warnAt)
			}
			consider(s.priority.expiry)
		}
	case StateClockShowing:
		consider(s.clockEnd)
	case StateRotatingOffline:
		consider(s.offlineDeadline)
		consider(s.clockDeadline)
	case StateShowingDefault:
		consider(s.clockDeadline)
	}
	return next, !next.IsZero()
}

// Start configures the sign memory, pushes the host time and shows the
// initial state. Called once before Tick.
func (s *Scheduler) Start() {
	now := s.clock.Now()
	s.stepErr = nil

	s.configureMemory()
	s.syncTime(now)

	if s.policy.Clock.Enabled {
		s.clockDeadline = now.Add(s.policy.Clock.Interval)
	}
	s.enterBase(now, 0, 0)
	s.report(ReportTransition, now)
}

func (s *Scheduler) configureMemory() {
	frame, err := s.enc.EncodeMemoryConfig(s.alloc.Labels(), s.policy.FileSize)
	if err != nil {
		s.fault(err)
		return
	}
	if err := s.out.send(frame); err != nil {
		s.fault(err)
	}
	s.alloc.ForgetResident()
}

func (s *Scheduler) syncTime(now time.Time) {
	if err := s.out.send(s.enc.EncodeTimeFormat(s.policy.Clock.H24)); err != nil {
		s.fault(err)
	}
	if err := s.out.send(s.enc.EncodeSetTime(now)); err != nil {
		s.fault(err)
	}
}

// show makes m the visible content under role r: content is rewritten only
// when the slot does not already hold it, then exactly one select follows.
func (s *Scheduler) show(r memory.Role, m store.Message) {
	label, err := s.alloc.Assign(r)
	if err != nil {
		s.fault(err)
		return
	}

	fp := m.Fingerprint()
	if s.alloc.Resident(label) != fp {
		frame, err := s.enc.EncodeWrite(label, m.Attributes, m.Text)
		if err != nil {
			s.fault(err)
			return
		}
		if err := s.out.send(frame); err != nil {
			s.fault(err)
		} else {
			s.alloc.SetResident(label, fp)
		}
	}

	sel, err := s.enc.EncodePriorityDisplay(label)
	if err != nil {
		s.fault(err)
		return
	}
	if err := s.out.send(sel); err != nil {
		s.fault(err)
	}
	s.visible = label

	log.Debug().
		Str("state", s.state.String()).
		Str("role", r.String()).
		Str("slot", string(label)).
		Int("cursor", s.index).
		Msg("sign: visible slot changed")
}

func (s *Scheduler) fault(err error) {
	s.stepErr = err
}

func (s *Scheduler) report(kind ReportKind, now time.Time) {
	if kind == ReportTransition && s.stepErr != nil {
		kind = ReportFault
	}
	r := Report{
		Kind:          kind,
		At:            now,
		Cursor:        s.Cursor(),
		OfflineCount:  len(s.policy.Offline),
		FramesSent:    s.out.sent,
		FramesDropped: s.out.dropped,
		Err:           s.stepErr,
	}
	if s.priority != nil {
		r.PriorityRemaining = s.priority.expiry.Sub(now)
	}
	s.stepErr = nil

	select {
	case s.reports <- r:
	default:
	}
}
