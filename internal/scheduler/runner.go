// internal/scheduler/runner.go
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/store"
)

// Event is an external trigger delivered to the scheduling loop.
type Event interface {
	apply(s *Scheduler) error
}

// ShowPriority pre-empts the display. Zero Duration selects the policy
// default; nil Attributes selects the policy's priority attributes.
type ShowPriority struct {
	Text       string
	Duration   time.Duration
	Attributes *protocol.Attributes
}

// CancelPriority ends the priority display. No-op when none is active.
type CancelPriority struct{}

// ReplaceOffline swaps the offline list wholesale. The cursor restarts at
// Start, or at 0 when Start is out of range.
type ReplaceOffline struct {
	Messages []store.Message
	Start    int
}

// Reconfigure swaps the whole policy.
type Reconfigure struct {
	Policy store.Policy
}

// Clear blanks the sign memory and re-shows the current content.
type Clear struct{}

// SyncTime pushes the host time to the sign.
type SyncTime struct{}

func (e ShowPriority) apply(s *Scheduler) error {
	return s.showPriority(e.Text, e.Duration, e.Attributes)
}
func (CancelPriority) apply(s *Scheduler) error   { s.cancelPriority(); return nil }
func (e ReplaceOffline) apply(s *Scheduler) error { return s.replaceOffline(e.Messages, e.Start) }
func (e Reconfigure) apply(s *Scheduler) error    { return s.reconfigure(e.Policy) }
func (Clear) apply(s *Scheduler) error            { s.clear(); return nil }
func (SyncTime) apply(s *Scheduler) error         { s.sendTime(); return nil }

// Apply runs ev synchronously. Loop goroutine only.
func (s *Scheduler) Apply(ev Event) error {
	if ev == nil {
		return errors.New("scheduler: nil event")
	}
	return ev.apply(s)
}

type request struct {
	ev    Event
	reply chan error
}

// Submit hands ev to the running loop and waits for its result.
func (s *Scheduler) Submit(ctx context.Context, ev Event) error {
	req := request{ev: ev, reply: make(chan error, 1)}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the display and processes deadlines and events until ctx is
// done. One transition at a time; no overlap.
func (s *Scheduler) Run(ctx context.Context) {
	s.Start()

	for {
		var timerC <-chan time.Time
		stop := func() {}

		if next, ok := s.NextDeadline(); ok {
			d := next.Sub(s.clock.Now())
			if d <= 0 {
				s.Tick()
				continue
			}
			t := s.clock.NewTimer(d)
			timerC = t.Chan()
			stop = func() { t.Stop() }
		}

		select {
		case <-ctx.Done():
			stop()
			return

		case req := <-s.requests:
			stop()
			req.reply <- s.Apply(req.ev)

		case <-timerC:
			s.Tick()
		}
	}
}
