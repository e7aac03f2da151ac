// internal/config/validate_test.go
package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tamzrod/sign-controller/internal/memory"
	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/status"
	"github.com/tamzrod/sign-controller/internal/store"
)

// helper to build a valid configuration quickly
func valid() *Config {
	cfg := Default()
	cfg.Sign.ID = "lobby"
	cfg.Transport.Device = "/dev/ttyUSB0"
	cfg.Defaults.Text = "WELCOME"
	cfg.Offline = []MessageConfig{
		{Text: "first"},
		{Text: "second", Duration: 5 * time.Second},
	}
	return &cfg
}

func expectField(t *testing.T, err error, field string) {
	t.Helper()

	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cerr.Field != field {
		t.Fatalf("expected field %q, got %q (%v)", field, cerr.Field, err)
	}
	if status.ErrorCode(err) != ErrorCodeConfiguration {
		t.Fatalf("expected code %d, got %d", ErrorCodeConfiguration, status.ErrorCode(err))
	}
}

// ---- tests ----

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_FieldRules(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"missing id", func(c *Config) { c.Sign.ID = "" }, "sign.id"},
		{"id with wildcard", func(c *Config) { c.Sign.ID = "a+b" }, "sign.id"},
		{"bad address", func(c *Config) { c.Sign.Address = "G0" }, "sign.address"},
		{"long address", func(c *Config) { c.Sign.Address = "001" }, "sign.address"},
		{"max_files zero", func(c *Config) { c.Sign.MaxFiles = 0 }, "sign.max_files"},
		{"max_files 27", func(c *Config) { c.Sign.MaxFiles = 27 }, "sign.max_files"},
		{"unknown kind", func(c *Config) { c.Transport.Kind = "usb" }, "transport.kind"},
		{"serial without device", func(c *Config) { c.Transport.Device = "" }, "transport.device"},
		{"tcp without endpoint", func(c *Config) { c.Transport.Kind = "tcp" }, "transport.endpoint"},
		{"bad parity", func(c *Config) { c.Transport.Parity = "X" }, "transport.parity"},
		{"offline bad color", func(c *Config) { c.Offline[1].Color = 99 }, "offline_messages[1].color"},
		{"offline bad speed", func(c *Config) { c.Offline[0].Speed = 6 }, "offline_messages[0].speed"},
		{"clock duration >= interval", func(c *Config) { c.Clock.Duration = c.Clock.Interval }, "clock.duration"},
		{"clock format", func(c *Config) { c.Clock.Format = "ampm" }, "clock.format"},
		{"priority default", func(c *Config) { c.Priority.DefaultDuration = 0 }, "priority.default_duration"},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }, "mqtt.broker"},
		{"status without endpoint", func(c *Config) { c.Status.Enabled = true }, "status.endpoint"},
		{"message_limit zero", func(c *Config) { c.MQTT.MessageLimit = 0 }, "mqtt.message_limit"},
		{"discovery without prefix", func(c *Config) {
			c.MQTT.Discovery = true
			c.MQTT.DiscoveryPrefix = ""
		}, "mqtt.discovery_prefix"},
		{"api without listen", func(c *Config) {
			c.API.Enabled = true
			c.API.Listen = ""
		}, "api.listen"},
		{"api bad listen", func(c *Config) {
			c.API.Enabled = true
			c.API.Listen = "8080"
		}, "api.listen"},
		{"api password alone", func(c *Config) { c.API.Password = "secret" }, "api.username"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mut(cfg)
			expectField(t, Validate(cfg), tc.field)
		})
	}
}

func TestValidate_MaxFilesBelowReservedFails(t *testing.T) {
	cfg := valid()
	cfg.Sign.MaxFiles = 2

	err := Validate(cfg)
	if !errors.Is(err, memory.ErrAllocatorExhausted) {
		t.Fatalf("expected allocator exhausted, got %v", err)
	}
	if !errors.Is(err, store.ErrInvalidPolicy) {
		t.Fatalf("expected invalid policy, got %v", err)
	}
}

func TestValidate_UnencodableTextFails(t *testing.T) {
	cfg := valid()
	cfg.Sign.FileSize = 4
	cfg.Offline[0].Text = "too long for the slot"

	if err := Validate(cfg); !errors.Is(err, store.ErrInvalidPolicy) {
		t.Fatalf("expected invalid policy, got %v", err)
	}
}

func TestValidate_DeviceNameASCII(t *testing.T) {
	cfg := valid()
	cfg.Status.Enabled = true
	cfg.Status.Endpoint = "127.0.0.1:502"
	cfg.Status.DeviceName = "caf\xc3\xa9"

	expectField(t, Validate(cfg), "status.device_name")
}

func TestValidate_StatusSlotOverflow(t *testing.T) {
	cfg := valid()
	cfg.Status.Enabled = true
	cfg.Status.Endpoint = "127.0.0.1:502"
	cfg.Status.Slot = 65535 / status.SlotsPerDevice

	expectField(t, Validate(cfg), "status.slot")
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := valid()
	cfg.Sign.Address = "0a"
	cfg.MQTT.Prefix = "/signs/"

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sign.Address != "0a" || cfg.MQTT.Prefix != "/signs/" {
		t.Fatalf("validate mutated config: %+v", cfg.Sign)
	}
}

func TestNormalize(t *testing.T) {
	cfg := valid()
	cfg.Sign.Address = "0a"
	cfg.MQTT.Prefix = "/signs/"
	cfg.Sign.ID = strings.Repeat("x", 20)

	Normalize(cfg)

	if cfg.Sign.Address != "0A" {
		t.Fatalf("address not upper-cased: %q", cfg.Sign.Address)
	}
	if cfg.MQTT.Prefix != "signs" {
		t.Fatalf("prefix not trimmed: %q", cfg.MQTT.Prefix)
	}
	if len(cfg.Status.DeviceName) != status.DeviceNameMaxChars {
		t.Fatalf("device_name not truncated: %q", cfg.Status.DeviceName)
	}

	Normalize(nil)
}

func TestPolicy_OfflineInheritance(t *testing.T) {
	cfg := valid()
	cfg.Offline[1].Color = protocol.ColorRed
	cfg.Offline[1].Effect = protocol.EffectSnow

	p := cfg.Policy()
	if len(p.Offline) != 2 {
		t.Fatalf("expected 2 offline messages, got %d", len(p.Offline))
	}

	first := p.Offline[0]
	if first.Duration != 10*time.Second {
		t.Fatalf("expected default duration, got %s", first.Duration)
	}
	want := protocol.Attributes{
		Color:    protocol.ColorGreen,
		Mode:     protocol.ModeRotate,
		Effect:   protocol.EffectNone,
		Charset:  protocol.Charset7High,
		Position: protocol.PositionTop,
		Speed:    3,
	}
	if first.Attributes != want {
		t.Fatalf("unexpected attributes: %+v", first.Attributes)
	}

	second := p.Offline[1]
	if second.Attributes.Color != protocol.ColorRed || second.Attributes.Effect != protocol.EffectSnow {
		t.Fatalf("overrides lost: %+v", second.Attributes)
	}
	if second.Duration != 5*time.Second {
		t.Fatalf("duration lost: %s", second.Duration)
	}

	if p.Default.Attributes.Effect != protocol.EffectNone {
		t.Fatalf("default message must not inherit an effect, got %s", p.Default.Attributes.Effect)
	}
}

func TestPolicy_DefaultsModeReachesWire(t *testing.T) {
	cfg := valid()
	cfg.Defaults.Mode = protocol.ModeScroll

	p := cfg.Policy()
	if got := p.Default.Attributes.Normalized().Mode; got != protocol.ModeScroll {
		t.Fatalf("default message wire mode = %s, want scroll", got)
	}
	if got := cfg.FeedMessage("news").Attributes.Normalized().Mode; got != protocol.ModeScroll {
		t.Fatalf("feed wire mode = %s, want scroll", got)
	}
}

func TestPolicy_SpecialModeUsesDefaultsEffect(t *testing.T) {
	cfg := valid()
	cfg.Offline = []MessageConfig{
		{Text: "plain special", Attributes: Attributes{Mode: protocol.ModeSpecial}},
		{Text: "own effect", Attributes: Attributes{Mode: protocol.ModeSpecial, Effect: protocol.EffectSnow}},
	}

	p := cfg.Policy()
	if got := p.Offline[0].Attributes.Effect; got != protocol.EffectTwinkle {
		t.Fatalf("special mode without effect should use defaults.effect, got %s", got)
	}
	if got := p.Offline[1].Attributes.Effect; got != protocol.EffectSnow {
		t.Fatalf("own effect lost, got %s", got)
	}

	cfg.Defaults.Effect = protocol.EffectNone
	if err := Validate(cfg); err == nil {
		t.Fatalf("special mode with no effect anywhere must be rejected")
	}
}

func TestPolicy_PriorityAndClock(t *testing.T) {
	cfg := valid()
	cfg.Clock.Format = "24h"

	p := cfg.Policy()
	if !p.Clock.H24 {
		t.Fatalf("expected 24h clock")
	}
	pa := p.Priority.Attributes
	if pa.Color != protocol.ColorRed || pa.Position != protocol.PositionFill || pa.Effect != protocol.EffectNewsFlash {
		t.Fatalf("unexpected priority attributes: %+v", pa)
	}
	if pa.Charset != protocol.Charset7High || pa.Speed != 3 {
		t.Fatalf("priority should inherit unset fields: %+v", pa)
	}
	if p.Priority.Warning != 2500*time.Millisecond || p.Priority.DefaultDuration != 25*time.Second {
		t.Fatalf("unexpected priority timing: %+v", p.Priority)
	}
}

func TestFeedMessage(t *testing.T) {
	cfg := valid()
	m := cfg.FeedMessage("headline")
	if m.Duration != cfg.MQTT.FeedDuration {
		t.Fatalf("expected feed duration, got %s", m.Duration)
	}
	if m.Attributes.Mode != protocol.ModeRotate || m.Attributes.Effect != protocol.EffectNone {
		t.Fatalf("feed items use the defaults block, got %+v", m.Attributes)
	}
}

func TestAdhocMessage(t *testing.T) {
	cfg := valid()
	cfg.MQTT.MessageDuration = 7 * time.Second
	m := cfg.AdhocMessage("posted")
	if m.Text != "posted" || m.Duration != 7*time.Second {
		t.Fatalf("unexpected message: %+v", m)
	}
	if m.Attributes.Color != protocol.ColorGreen || m.Attributes.Effect != protocol.EffectNone {
		t.Fatalf("posted messages use the defaults block, got %+v", m.Attributes)
	}
}
