// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/sign-controller/internal/protocol"
)

type Config struct {
	Sign      SignConfig      `yaml:"sign"`
	Transport TransportConfig `yaml:"transport"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Offline   []MessageConfig `yaml:"offline_messages" validate:"dive"`
	Clock     ClockConfig     `yaml:"clock"`
	Priority  PriorityConfig  `yaml:"priority"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Status    StatusConfig    `yaml:"status"`
	API       APIConfig       `yaml:"api"`
	Log       LogConfig       `yaml:"log"`
}

// ---- SIGN ----

type SignConfig struct {
	ID       string            `yaml:"id" validate:"required,printascii,max=32,excludesall=/+#"`
	Type     protocol.SignType `yaml:"type" validate:"valid"`
	Address  string            `yaml:"address" validate:"len=2,hexadecimal"`
	MaxFiles int               `yaml:"max_files" validate:"min=1,max=26"`
	FileSize int               `yaml:"file_size" validate:"min=1,max=65535"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	Kind string `yaml:"kind" validate:"oneof=serial tcp"`

	// serial
	Device   string `yaml:"device" validate:"required_if=Kind serial"`
	BaudRate int    `yaml:"baud_rate" validate:"min=300"`
	DataBits int    `yaml:"data_bits" validate:"oneof=7 8"`
	StopBits int    `yaml:"stop_bits" validate:"oneof=1 2"`
	Parity   string `yaml:"parity" validate:"oneof=N E O"`
	RS485    bool   `yaml:"rs485"`

	// tcp
	Endpoint string `yaml:"endpoint" validate:"required_if=Kind tcp,omitempty,hostname_port"`

	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	FrameGap time.Duration `yaml:"frame_gap" validate:"gte=0"`

	// AckPoll is the inbound monitor interval; 0 disables it.
	AckPoll time.Duration `yaml:"ack_poll" validate:"gte=0"`
}

// ---- MESSAGES ----

// DefaultsConfig is the rendering used for the default message, feed items
// and any field an offline message leaves out.
// Its effect is used only by a message whose mode is special and that names
// no effect of its own.
type DefaultsConfig struct {
	Text       string `yaml:"text"`
	Attributes `yaml:",inline"`
}

type MessageConfig struct {
	Text       string        `yaml:"text" validate:"printascii"`
	Duration   time.Duration `yaml:"duration" validate:"gte=0"`
	Attributes `yaml:",inline"`
}

// Attributes mirrors protocol.Attributes; zero enum values mean "inherit".
type Attributes struct {
	Color    protocol.Color    `yaml:"color" validate:"omitempty,valid"`
	Mode     protocol.Mode     `yaml:"mode" validate:"omitempty,valid"`
	Effect   protocol.Effect   `yaml:"effect" validate:"valid"`
	Charset  protocol.Charset  `yaml:"charset" validate:"omitempty,valid"`
	Position protocol.Position `yaml:"position" validate:"omitempty,valid"`
	Speed    int               `yaml:"speed" validate:"omitempty,min=1,max=5"`
}

// ---- CLOCK ----

type ClockConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Interval time.Duration  `yaml:"interval" validate:"gt=0"`
	Duration time.Duration  `yaml:"duration" validate:"gt=0,ltfield=Interval"`
	Format   string         `yaml:"format" validate:"oneof=12h 24h"`
	Color    protocol.Color `yaml:"color" validate:"valid"`
}

// ---- PRIORITY ----

type PriorityConfig struct {
	WarningDuration time.Duration `yaml:"warning_duration" validate:"gte=0"`
	DefaultDuration time.Duration `yaml:"default_duration" validate:"gt=0"`
	Attributes      `yaml:",inline"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker" validate:"required_if=Enabled true,omitempty,url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix" validate:"required,excludesall=+#"`
	QoS      byte   `yaml:"qos" validate:"max=2"`

	FeedDuration time.Duration `yaml:"feed_duration" validate:"gt=0"`
	FeedLimit    int           `yaml:"feed_limit" validate:"min=0"`

	// ad-hoc messages from the message topics, the API or a message command
	MessageDuration time.Duration `yaml:"message_duration" validate:"gt=0"`
	MessageLimit    int           `yaml:"message_limit" validate:"min=1,max=26"`

	// Home Assistant discovery
	Discovery       bool   `yaml:"discovery"`
	DiscoveryPrefix string `yaml:"discovery_prefix" validate:"required_if=Discovery true,excludesall=+#"`
}

// ---- STATUS ----

type StatusConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Protocol   string        `yaml:"protocol" validate:"oneof=modbus ingest"`
	Endpoint   string        `yaml:"endpoint" validate:"required_if=Enabled true,omitempty,hostname_port"`
	UnitID     uint8         `yaml:"unit_id"`
	Slot       uint16        `yaml:"slot"`
	DeviceName string        `yaml:"device_name"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
}

// ---- API ----

type APIConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Listen         string        `yaml:"listen" validate:"required_if=Enabled true,omitempty,hostname_port"`
	Username       string        `yaml:"username" validate:"required_with=Password"`
	Password       string        `yaml:"password"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// ---- LOG ----

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=trace debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
}
