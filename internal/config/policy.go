// internal/config/policy.go
package config

import (
	"strings"

	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/store"
)

// Policy derives the display policy the scheduler runs. It reads only and
// may be called before Normalize.
func (c *Config) Policy() store.Policy {
	offline := make([]store.Message, 0, len(c.Offline))
	for _, m := range c.Offline {
		offline = append(offline, c.Message(m))
	}

	return store.Policy{
		SignType: c.Sign.Type,
		Address:  strings.ToUpper(c.Sign.Address),
		MaxFiles: c.Sign.MaxFiles,
		FileSize: c.Sign.FileSize,
		Default: store.Message{
			Text:       c.Defaults.Text,
			Attributes: c.defaultAttributes(),
		},
		Offline: offline,
		Clock: store.Clock{
			Enabled:  c.Clock.Enabled,
			Interval: c.Clock.Interval,
			Duration: c.Clock.Duration,
			H24:      c.Clock.Format == "24h",
			Color:    c.Clock.Color,
		},
		Priority: store.Priority{
			Warning:         c.Priority.WarningDuration,
			DefaultDuration: c.Priority.DefaultDuration,
			Attributes:      c.render(c.Priority.Attributes),
		},
	}
}

// Message renders one configured offline message. Unset fields come from
// the defaults block; see render for the effect.
func (c *Config) Message(m MessageConfig) store.Message {
	d := m.Duration
	if d <= 0 {
		d = defaultOfflineDuration
	}
	return store.Message{
		Text:       m.Text,
		Attributes: c.render(m.Attributes),
		Duration:   d,
	}
}

// FeedMessage renders an externally supplied item with the defaults block.
func (c *Config) FeedMessage(text string) store.Message {
	return store.Message{
		Text:       text,
		Attributes: c.defaultAttributes(),
		Duration:   c.MQTT.FeedDuration,
	}
}

// AdhocMessage renders a message posted at runtime. The caller applies any
// inline style on top.
func (c *Config) AdhocMessage(text string) store.Message {
	return store.Message{
		Text:       text,
		Attributes: c.defaultAttributes(),
		Duration:   c.MQTT.MessageDuration,
	}
}

// defaultAttributes is the defaults block rendered on its own.
func (c *Config) defaultAttributes() protocol.Attributes {
	return c.render(Attributes{})
}

// render fills a's unset fields from the defaults block. The effect is a's
// own; defaults.effect applies only when the resulting mode is special and
// a names no effect.
func (c *Config) render(a Attributes) protocol.Attributes {
	out := a.over(c.Defaults.Attributes.protocol())
	if out.Mode == protocol.ModeSpecial && out.Effect == protocol.EffectNone {
		out.Effect = c.Defaults.Effect
	}
	return out
}

func (a Attributes) protocol() protocol.Attributes {
	return protocol.Attributes{
		Color:    a.Color,
		Mode:     a.Mode,
		Effect:   a.Effect,
		Charset:  a.Charset,
		Position: a.Position,
		Speed:    a.Speed,
	}
}

// over fills a's unset fields from base. Effect is never inherited.
func (a Attributes) over(base protocol.Attributes) protocol.Attributes {
	out := base
	out.Effect = defaultOfflineEffect
	if a.Color != 0 {
		out.Color = a.Color
	}
	if a.Mode != 0 {
		out.Mode = a.Mode
	}
	if a.Effect != protocol.EffectNone {
		out.Effect = a.Effect
	}
	if a.Charset != 0 {
		out.Charset = a.Charset
	}
	if a.Position != 0 {
		out.Position = a.Position
	}
	if a.Speed != 0 {
		out.Speed = a.Speed
	}
	return out
}
