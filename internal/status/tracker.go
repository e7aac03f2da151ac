// internal/status/tracker.go
package status

import (
	"errors"
	"math"
	"time"

	"github.com/tamzrod/sign-controller/internal/scheduler"
)

// Tracker owns the snapshot of one sign. It is runner-owned state: one
// goroutine folds reports and 1 Hz ticks into it.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in the boot state.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current snapshot.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds a scheduler report in. It reports whether anything changed.
func (t *Tracker) Observe(r scheduler.Report) bool {
	next := t.snap

	if r.Kind != scheduler.ReportWarning {
		if r.Err == nil {
			// Recovery / OK
			next.Health = HealthOK
			next.LastErrorCode = 0
			next.SecondsInError = 0
		} else {
			next.Health = HealthError
			next.LastErrorCode = ErrorCode(r.Err)
			// seconds_in_error increments on the 1Hz tick only.
		}
	}

	next.State = stateCode(r.Cursor.State)
	next.Visible = uint16(r.Cursor.Visible)
	next.Cursor = clamp16(r.Cursor.Index)
	next.OfflineCount = clamp16(r.OfflineCount)
	next.FramesSent = uint16(r.FramesSent)
	next.FramesDropped = uint16(r.FramesDropped)
	next.PrioritySeconds = 0
	if r.Cursor.State == scheduler.StatePriorityActive {
		next.PrioritySeconds = ceilSeconds(r.PriorityRemaining)
	}

	changed := next != t.snap
	t.snap = next
	return changed
}

// TickSecond advances the 1 Hz counters: seconds in error while not OK and
// the priority countdown. It reports whether anything changed.
func (t *Tracker) TickSecond() bool {
	changed := false

	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	if t.snap.Health != HealthOK && t.snap.SecondsInError < math.MaxUint16 {
		t.snap.SecondsInError++
		changed = true
	}
	if t.snap.State == StateCodePriority && t.snap.PrioritySeconds > 0 {
		t.snap.PrioritySeconds--
		changed = true
	}
	return changed
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns ErrorCodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	return ErrorCodeGeneric
}

func stateCode(s scheduler.State) uint16 {
	switch s {
	case scheduler.StateShowingDefault:
		return StateCodeDefault
	case scheduler.StateRotatingOffline:
		return StateCodeRotating
	case scheduler.StatePriorityActive:
		return StateCodePriority
	case scheduler.StateClockShowing:
		return StateCodeClock
	default:
		return StateCodeUnknown
	}
}

func clamp16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}

func ceilSeconds(d time.Duration) uint16 {
	if d <= 0 {
		return 0
	}
	return clamp16(int((d + time.Second - 1) / time.Second))
}
