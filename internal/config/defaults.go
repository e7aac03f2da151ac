// internal/config/defaults.go
package config

import (
	"time"

	"github.com/tamzrod/sign-controller/internal/protocol"
)

// Default returns a configuration with every optional field filled. Load
// decodes the file over it, so absent keys keep these values.
func Default() Config {
	return Config{
		Sign: SignConfig{
			ID:       "sign",
			Type:     protocol.SignAll,
			Address:  "00",
			MaxFiles: 5,
			FileSize: 256,
		},
		Transport: TransportConfig{
			Kind:     "serial",
			BaudRate: 9600,
			DataBits: 7,
			StopBits: 1,
			Parity:   "E",
			Timeout:  2 * time.Second,
			FrameGap: 110 * time.Millisecond,
		},
		Defaults: DefaultsConfig{
			Attributes: Attributes{
				Color:    protocol.ColorGreen,
				Mode:     protocol.ModeRotate,
				Effect:   protocol.EffectTwinkle,
				Charset:  protocol.Charset7High,
				Position: protocol.PositionTop,
				Speed:    3,
			},
		},
		Clock: ClockConfig{
			Enabled:  true,
			Interval: 60 * time.Second,
			Duration: 4 * time.Second,
			Format:   "12h",
			Color:    protocol.ColorAmber,
		},
		Priority: PriorityConfig{
			WarningDuration: 2500 * time.Millisecond,
			DefaultDuration: 25 * time.Second,
			Attributes: Attributes{
				Color:    protocol.ColorRed,
				Position: protocol.PositionFill,
				Effect:   protocol.EffectNewsFlash,
			},
		},
		MQTT: MQTTConfig{
			Prefix:       "ledSign",
			QoS:          1,
			FeedDuration: 10 * time.Second,
			FeedLimit:    10,

			MessageDuration: 10 * time.Second,
			MessageLimit:    3,
			DiscoveryPrefix: "homeassistant",
		},
		Status: StatusConfig{
			Protocol: "modbus",
			Timeout:  2 * time.Second,
		},
		API: APIConfig{
			Listen:         ":8080",
			RequestTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Offline message fields fall back to these values; the effect does not
// inherit and stays none unless set.
const (
	defaultOfflineDuration = 10 * time.Second
	defaultOfflineEffect   = protocol.EffectNone
)
