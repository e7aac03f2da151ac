// internal/bridge/payload.go
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/scheduler"
	"github.com/tamzrod/sign-controller/internal/status"
)

// ---- inbound ----

// Style names rendering overrides. Empty fields keep the base rendering.
type Style struct {
	Color    string `json:"color,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Special  string `json:"special,omitempty"`
	Position string `json:"position,omitempty"`
}

func (st Style) empty() bool {
	return st.Color == "" && st.Mode == "" && st.Special == "" && st.Position == ""
}

// apply overlays st on base. A mode without a special effect drops the base
// effect, unless the mode is special, which falls back to fallback.
func (st Style) apply(base protocol.Attributes, fallback protocol.Effect) (protocol.Attributes, error) {
	a := base
	var err error
	if st.Color != "" {
		if a.Color, err = protocol.ParseColor(st.Color); err != nil {
			return base, err
		}
	}
	if st.Position != "" {
		if a.Position, err = protocol.ParsePosition(st.Position); err != nil {
			return base, err
		}
	}
	if st.Mode != "" {
		if a.Mode, err = protocol.ParseMode(st.Mode); err != nil {
			return base, err
		}
		if a.Mode != protocol.ModeSpecial {
			a.Effect = protocol.EffectNone
		} else if a.Effect == protocol.EffectNone {
			a.Effect = fallback
		}
	}
	if st.Special != "" {
		if a.Effect, err = protocol.ParseEffect(st.Special); err != nil {
			return base, err
		}
	}
	return a, nil
}

// Command is the JSON body of <prefix>/<id>/command and of the API's
// message endpoint.
type Command struct {
	Type     string   `json:"type"`
	Text     string   `json:"text,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Messages []string `json:"messages,omitempty"`

	Style
}

const (
	CommandMessage  = "message"
	CommandPriority = "priority"
	CommandCancel   = "cancel"
	CommandClear    = "clear"
	CommandTime     = "time"
	CommandOffline  = "offline"

	// commandNormal is the older name of a plain message.
	commandNormal = "normal"
)

var (
	// ErrInvalidCommand wraps every rejection of a malformed command.
	ErrInvalidCommand = errors.New("bridge: invalid command")
	ErrUnknownCommand = fmt.Errorf("%w: unknown type", ErrInvalidCommand)
)

func decodeCommand(b []byte) (Command, time.Duration, error) {
	var c Command
	if err := json.Unmarshal(b, &c); err != nil {
		return Command{}, 0, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	if c.Type == "" || c.Type == commandNormal {
		c.Type = CommandMessage
	}

	var d time.Duration
	switch c.Type {
	case CommandMessage, CommandPriority:
		if strings.TrimSpace(c.Text) == "" {
			return Command{}, 0, fmt.Errorf("%w: %s without text", ErrInvalidCommand, c.Type)
		}
		if c.Duration != "" {
			var err error
			if d, err = time.ParseDuration(c.Duration); err != nil || d < 0 {
				return Command{}, 0, fmt.Errorf("%w: %s duration %q", ErrInvalidCommand, c.Type, c.Duration)
			}
		}
	case CommandCancel, CommandClear, CommandTime, CommandOffline:
	default:
		return Command{}, 0, fmt.Errorf("%w %q", ErrUnknownCommand, c.Type)
	}
	return c, d, nil
}

// decodeList reads a feed list: a JSON array of strings.
func decodeList(b []byte) ([]string, error) {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("bridge: feed list: %w", err)
	}
	return items, nil
}

// Trivia is the JSON object published on the trivia topic.
type Trivia struct {
	Category string `json:"category,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// decodeTrivia renders a trivia object as a question item followed by an
// answer item. An empty payload clears it.
func decodeTrivia(b []byte) ([]string, error) {
	if len(strings.TrimSpace(string(b))) == 0 || string(b) == "null" {
		return nil, nil
	}
	var t Trivia
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("bridge: trivia: %w", err)
	}
	if t.Question == "" {
		return nil, errors.New("bridge: trivia without question")
	}
	items := []string{"Q: " + t.Question}
	if t.Answer != "" {
		items = append(items, "A: "+t.Answer)
	}
	return items, nil
}

// cleanText folds text into what the sign can render: printable ASCII no
// longer than limit bytes.
func cleanText(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 0x20 && r <= 0x7E:
			b.WriteRune(r)
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r == '\u2018' || r == '\u2019':
			b.WriteByte('\'')
		case r == '\u201c' || r == '\u201d':
			b.WriteByte('"')
		case r == '\u2013' || r == '\u2014':
			b.WriteByte('-')
		case r == '\u2026':
			b.WriteString("...")
		default:
			b.WriteByte('?')
		}
	}
	out := strings.TrimSpace(b.String())
	if limit > 0 && len(out) > limit {
		out = strings.TrimSpace(out[:limit])
	}
	return out
}

// ---- outbound ----

// StatusPayload is the retained JSON on <prefix>/<id>/status.
type StatusPayload struct {
	At              time.Time `json:"at"`
	Event           string    `json:"event"`
	State           string    `json:"state"`
	Visible         string    `json:"visible,omitempty"`
	Index           int       `json:"index"`
	OfflineCount    int       `json:"offline_count"`
	FramesSent      uint64    `json:"frames_sent"`
	FramesDropped   uint64    `json:"frames_dropped"`
	PrioritySeconds int       `json:"priority_seconds,omitempty"`
	Error           string    `json:"error,omitempty"`
	ErrorCode       uint16    `json:"error_code,omitempty"`
}

func statusPayload(r scheduler.Report) StatusPayload {
	p := StatusPayload{
		At:            r.At,
		Event:         r.Kind.String(),
		State:         r.Cursor.State.String(),
		Index:         r.Cursor.Index,
		OfflineCount:  r.OfflineCount,
		FramesSent:    r.FramesSent,
		FramesDropped: r.FramesDropped,
	}
	if r.Cursor.Visible != 0 {
		p.Visible = string(r.Cursor.Visible)
	}
	if r.Cursor.State == scheduler.StatePriorityActive && r.PriorityRemaining > 0 {
		p.PrioritySeconds = int((r.PriorityRemaining + time.Second - 1) / time.Second)
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
		p.ErrorCode = status.ErrorCode(r.Err)
	}
	return p
}
