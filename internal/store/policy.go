// internal/store/policy.go
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/sign-controller/internal/memory"
	"github.com/tamzrod/sign-controller/internal/protocol"
)

// Message is one renderable unit of sign content.
type Message struct {
	Text       string
	Attributes protocol.Attributes
	Duration   time.Duration
}

// Fingerprint identifies the encoded content of m. Two messages with the
// same fingerprint produce the same write frame for a given slot.
func (m Message) Fingerprint() string {
	a := m.Attributes.Normalized()
	return fmt.Sprintf("%d/%d/%d/%d/%d/%d|%s",
		a.Color, a.Mode, a.Effect, a.Charset, a.Position, a.Speed, m.Text)
}

// Clock is the periodic clock display policy.
type Clock struct {
	Enabled  bool
	Interval time.Duration
	Duration time.Duration
	H24      bool
	Color    protocol.Color
}

// Priority is the pre-emption channel policy.
type Priority struct {
	Warning         time.Duration
	DefaultDuration time.Duration
	Attributes      protocol.Attributes
}

// Policy is an immutable display policy for one configuration epoch.
// Callers never mutate a Policy after Validate; use the With* helpers to
// derive a new one.
type Policy struct {
	SignType protocol.SignType
	Address  string
	MaxFiles int
	FileSize int

	// Default is shown when no offline messages exist. Duration is unused.
	Default Message
	Offline []Message

	Clock    Clock
	Priority Priority
}

// ErrInvalidPolicy is wrapped by every Validate failure.
var ErrInvalidPolicy = errors.New("store: invalid policy")

// Validate checks the policy is fully encodable and its durations are
// usable by the scheduler.
func (p Policy) Validate() error {
	if !p.SignType.Valid() {
		return invalid("sign_type %d unknown", p.SignType)
	}
	if err := protocol.ValidateAddress(p.Address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if p.MaxFiles > memory.MaxSlots {
		return invalid("max_files %d exceeds %d", p.MaxFiles, memory.MaxSlots)
	}
	if p.MaxFiles < 3 {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, memory.ErrAllocatorExhausted)
	}
	if p.FileSize <= 0 || p.FileSize > 0xFFFF {
		return invalid("file_size %d out of range", p.FileSize)
	}

	enc, err := p.Encoder()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if _, err := enc.EncodeWrite('A', p.Default.Attributes, p.Default.Text); err != nil {
		return fmt.Errorf("%w: default: %v", ErrInvalidPolicy, err)
	}
	for i, m := range p.Offline {
		if m.Duration <= 0 {
			return invalid("offline_messages[%d]: duration must be > 0", i)
		}
		if _, err := enc.EncodeWrite('A', m.Attributes, m.Text); err != nil {
			return fmt.Errorf("%w: offline_messages[%d]: %v", ErrInvalidPolicy, i, err)
		}
	}

	if p.Clock.Enabled {
		if p.Clock.Interval <= 0 || p.Clock.Duration <= 0 {
			return invalid("clock: interval and duration must be > 0")
		}
		if p.Clock.Duration >= p.Clock.Interval {
			return invalid("clock: duration %s must be shorter than interval %s",
				p.Clock.Duration, p.Clock.Interval)
		}
		if _, err := p.ClockMessage().Attributes.ControlCodes(); err != nil {
			return fmt.Errorf("%w: clock: %v", ErrInvalidPolicy, err)
		}
	}

	if p.Priority.DefaultDuration <= 0 {
		return invalid("priority: default_duration must be > 0")
	}
	if p.Priority.Warning < 0 {
		return invalid("priority: warning_duration must be >= 0")
	}
	if _, err := p.Priority.Attributes.ControlCodes(); err != nil {
		return fmt.Errorf("%w: priority: %v", ErrInvalidPolicy, err)
	}

	return nil
}

// Encoder returns the codec bound to the policy's sign identity.
func (p Policy) Encoder() (*protocol.Encoder, error) {
	return protocol.NewEncoder(p.SignType, p.Address, p.FileSize)
}

// ClockMessage is the content written to the clock slot: the sign's own
// time, held in the clock color.
func (p Policy) ClockMessage() Message {
	a := p.Default.Attributes
	a.Mode = protocol.ModeHold
	a.Effect = protocol.EffectNone
	a.Color = p.Clock.Color
	return Message{
		Text:       string([]byte{protocol.FormatCallTime}),
		Attributes: a,
		Duration:   p.Clock.Duration,
	}
}

// PriorityMessage renders text on the priority channel. A zero duration
// selects the configured default.
func (p Policy) PriorityMessage(text string, d time.Duration) Message {
	if d <= 0 {
		d = p.Priority.DefaultDuration
	}
	return Message{Text: text, Attributes: p.Priority.Attributes, Duration: d}
}

// WithOffline returns a copy of p whose offline list is msgs. The result is
// validated; p is left untouched.
func (p Policy) WithOffline(msgs []Message) (Policy, error) {
	p.Offline = append([]Message(nil), msgs...)
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidPolicy}, args...)...)
}
