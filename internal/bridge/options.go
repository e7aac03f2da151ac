// internal/bridge/options.go
package bridge

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	cfg "github.com/tamzrod/sign-controller/internal/config"
)

// ClientFactory builds the paho client; tests swap it for a fake.
type ClientFactory func(*mqtt.ClientOptions) mqtt.Client

// DefaultClientFactory is paho's own constructor.
var DefaultClientFactory ClientFactory = mqtt.NewClient

// brokerURL maps the mqtt/mqtts schemes onto what paho dials.
//
//   - "mqtts://broker:8883" -> "ssl://broker:8883", tls
//   - "mqtt://broker:1883"  -> "tcp://broker:1883"
//   - "broker:1883"         -> "tcp://broker:1883"
func brokerURL(raw string) (string, bool) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "tcp://" + raw, false
	}
	switch scheme {
	case "mqtts", "ssl", "tls":
		return "ssl://" + rest, true
	case "ws", "wss":
		return raw, scheme == "wss"
	default:
		return "tcp://" + rest, false
	}
}

// NewClientOptions configures paho for one sign. An empty client id gets a
// generated one so several controllers can share a broker.
func NewClientOptions(c cfg.MQTTConfig, signID string) *mqtt.ClientOptions {
	url, useTLS := brokerURL(c.Broker)

	clientID := c.ClientID
	if clientID == "" {
		clientID = "sign-" + signID + "-" + uuid.New().String()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(url)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true) // resubscribe happens in OnConnect
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
		log.Debug().Msgf("mqtt: using authentication for %s", url)
	}

	if useTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
		log.Debug().Msgf("mqtt: using TLS for %s", url)
	}

	return opts
}

// Topics is the topic layout of one sign under the configured prefix.
type Topics struct {
	FeedLists    string // <prefix>/feed/+/list
	Trivia       string // <prefix>/feed/trivia/question
	Command      string // <prefix>/<id>/command
	Message      string // <prefix>/<id>/message
	Broadcast    string // <prefix>/message
	Status       string // <prefix>/<id>/status
	Availability string // <prefix>/<id>/availability
}

func NewTopics(prefix, signID string) Topics {
	dev := prefix + "/" + signID
	return Topics{
		FeedLists:    prefix + "/feed/+/list",
		Trivia:       prefix + "/feed/trivia/question",
		Command:      dev + "/command",
		Message:      dev + "/message",
		Broadcast:    prefix + "/message",
		Status:       dev + "/status",
		Availability: dev + "/availability",
	}
}

// feedName extracts <name> from <prefix>/feed/<name>/list.
func (t Topics) feedName(topic string) (string, error) {
	base := strings.TrimSuffix(t.FeedLists, "+/list")
	name, ok := strings.CutPrefix(topic, base)
	if !ok {
		return "", fmt.Errorf("topic %q is not a feed list", topic)
	}
	name, ok = strings.CutSuffix(name, "/list")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("topic %q is not a feed list", topic)
	}
	return name, nil
}
