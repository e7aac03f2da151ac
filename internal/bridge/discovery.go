// internal/bridge/discovery.go
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	cfg "github.com/tamzrod/sign-controller/internal/config"
)

// Home Assistant caps text entities at 255 characters.
const haTextMax = 255

type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

type haEntity struct {
	Name                string   `json:"name"`
	UniqueID            string   `json:"unique_id"`
	ObjectID            string   `json:"object_id"`
	Icon                string   `json:"icon,omitempty"`
	EntityCategory      string   `json:"entity_category,omitempty"`
	CommandTopic        string   `json:"command_topic,omitempty"`
	PayloadPress        string   `json:"payload_press,omitempty"`
	Max                 int      `json:"max,omitempty"`
	StateTopic          string   `json:"state_topic,omitempty"`
	ValueTemplate       string   `json:"value_template,omitempty"`
	JSONAttributesTopic string   `json:"json_attributes_topic,omitempty"`
	AvailabilityTopic   string   `json:"availability_topic"`
	Device              haDevice `json:"device"`
}

type discoveryMessage struct {
	Topic   string
	Payload []byte
}

// discoveryMessages builds one retained config document per entity under
// <discovery_prefix>/<component>/<node>/<object>/config.
func discoveryMessages(c *cfg.Config, t Topics) ([]discoveryMessage, error) {
	node := "ledsign_" + strings.ToLower(c.Sign.ID)
	dev := haDevice{
		Identifiers:  []string{node},
		Name:         c.Sign.ID,
		Model:        "Alpha " + c.Sign.Type.String(),
		Manufacturer: "Adaptive Micro Systems",
	}

	cmd := func(v string) string { return fmt.Sprintf(`{"type":%q}`, v) }

	entities := []struct {
		component string
		object    string
		e         haEntity
	}{
		{"text", "message", haEntity{
			Name:         "Message",
			Icon:         "mdi:message-text",
			CommandTopic: t.Message,
			Max:          min(c.Sign.FileSize, haTextMax),
		}},
		{"button", "clear", haEntity{
			Name:         "Clear",
			Icon:         "mdi:eraser",
			CommandTopic: t.Command,
			PayloadPress: cmd(CommandClear),
		}},
		{"button", "cancel_priority", haEntity{
			Name:         "Cancel priority",
			Icon:         "mdi:alert-remove",
			CommandTopic: t.Command,
			PayloadPress: cmd(CommandCancel),
		}},
		{"button", "sync_time", haEntity{
			Name:           "Sync time",
			Icon:           "mdi:clock-check",
			EntityCategory: "config",
			CommandTopic:   t.Command,
			PayloadPress:   cmd(CommandTime),
		}},
		{"sensor", "state", haEntity{
			Name:                "State",
			Icon:                "mdi:television",
			StateTopic:          t.Status,
			ValueTemplate:       "{{ value_json.state }}",
			JSONAttributesTopic: t.Status,
		}},
		{"sensor", "frames_dropped", haEntity{
			Name:           "Frames dropped",
			EntityCategory: "diagnostic",
			StateTopic:     t.Status,
			ValueTemplate:  "{{ value_json.frames_dropped }}",
		}},
	}

	out := make([]discoveryMessage, 0, len(entities))
	for _, en := range entities {
		e := en.e
		e.UniqueID = node + "_" + en.object
		e.ObjectID = e.UniqueID
		e.AvailabilityTopic = t.Availability
		e.Device = dev

		payload, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("discovery %s: %w", en.object, err)
		}
		out = append(out, discoveryMessage{
			Topic:   fmt.Sprintf("%s/%s/%s/%s/config", c.MQTT.DiscoveryPrefix, en.component, node, en.object),
			Payload: payload,
		})
	}
	return out, nil
}
