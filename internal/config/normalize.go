// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/sign-controller/internal/status"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Sign.Address = strings.ToUpper(cfg.Sign.Address)
	cfg.MQTT.Prefix = strings.Trim(cfg.MQTT.Prefix, "/")

	// device_name defaults to the sign id
	if cfg.Status.DeviceName == "" {
		cfg.Status.DeviceName = cfg.Sign.ID
	}
	if len(cfg.Status.DeviceName) > status.DeviceNameMaxChars {
		cfg.Status.DeviceName = cfg.Status.DeviceName[:status.DeviceNameMaxChars]
	}
}
