// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"

	cfg "github.com/tamzrod/sign-controller/internal/config"
	"github.com/tamzrod/sign-controller/internal/writer/ingest"
	wmodbus "github.com/tamzrod/sign-controller/internal/writer/modbus"
)

// BuildStatusPlan converts the status config into a StatusPlan.
// Assumes config has already passed validation and normalization.
func BuildStatusPlan(s cfg.StatusConfig) (*StatusPlan, error) {
	if !s.Enabled {
		return nil, nil
	}
	if s.Endpoint == "" {
		return nil, errors.New("writer: status.endpoint required")
	}

	return &StatusPlan{
		Endpoint:   s.Endpoint,
		UnitID:     s.UnitID,
		BaseSlot:   s.Slot,
		DeviceName: s.DeviceName,
	}, nil
}

// BuildEndpointClient creates the client for the configured status protocol.
// The returned closer is never nil.
func BuildEndpointClient(s cfg.StatusConfig) (endpointClient, func() error, error) {
	switch s.Protocol {
	case "", "modbus":
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: s.Endpoint,
			Timeout:  s.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	case "ingest":
		c, err := ingest.NewEndpointClient(ingest.Config{
			Endpoint: s.Endpoint,
			Timeout:  s.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	default:
		return nil, nil, fmt.Errorf("writer: unknown status protocol %q", s.Protocol)
	}
}

// BuildStatusWriter wires the plan and client together. It returns
// (nil, no-op closer, nil) when status is disabled.
func BuildStatusWriter(s cfg.StatusConfig) (StatusWriter, func() error, error) {
	noop := func() error { return nil }

	plan, err := BuildStatusPlan(s)
	if err != nil || plan == nil {
		return nil, noop, err
	}

	cli, closeFn, err := BuildEndpointClient(s)
	if err != nil {
		return nil, noop, err
	}

	sw, _ := NewDeviceStatusWriter(plan, cli)
	return sw, closeFn, nil
}
