// internal/bridge/discovery_test.go
package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryMessages(t *testing.T) {
	c := testConfig()
	docs, err := discoveryMessages(c, NewTopics(c.MQTT.Prefix, c.Sign.ID))
	require.NoError(t, err)

	byTopic := make(map[string]map[string]any, len(docs))
	for _, d := range docs {
		var m map[string]any
		require.NoError(t, json.Unmarshal(d.Payload, &m), d.Topic)
		byTopic[d.Topic] = m
		assert.Equal(t, "office/lobby/availability", m["availability_topic"], d.Topic)
		assert.Contains(t, m, "device")
	}

	text := byTopic["homeassistant/text/ledsign_lobby/message/config"]
	require.NotNil(t, text)
	assert.Equal(t, "office/lobby/message", text["command_topic"])
	assert.Equal(t, "ledsign_lobby_message", text["unique_id"])
	assert.EqualValues(t, 32, text["max"])

	state := byTopic["homeassistant/sensor/ledsign_lobby/state/config"]
	require.NotNil(t, state)
	assert.Equal(t, "office/lobby/status", state["state_topic"])
	assert.Equal(t, "{{ value_json.state }}", state["value_template"])

	// every button press is a command the bridge accepts
	for _, object := range []string{"clear", "cancel_priority", "sync_time"} {
		btn := byTopic["homeassistant/button/ledsign_lobby/"+object+"/config"]
		require.NotNil(t, btn, object)
		assert.Equal(t, "office/lobby/command", btn["command_topic"])
		_, _, err := decodeCommand([]byte(btn["payload_press"].(string)))
		assert.NoError(t, err, object)
	}
}
