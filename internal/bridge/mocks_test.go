// internal/bridge/mocks_test.go
package bridge

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/sign-controller/internal/scheduler"
)

// mockMQTTClient implements mqtt.Client for testing
type mockMQTTClient struct {
	mu sync.Mutex

	opts         *mqtt.ClientOptions
	connectError error
	connected    bool
	subscribed   map[string]byte
	published    []publishedMessage
	disconnects  int
}

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  any
}

func (m *mockMQTTClient) factory(o *mqtt.ClientOptions) mqtt.Client {
	m.opts = o
	return m
}

func (m *mockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTTClient) IsConnectionOpen() bool { return m.IsConnected() }

func (m *mockMQTTClient) Connect() mqtt.Token {
	m.mu.Lock()
	if m.connectError != nil {
		m.mu.Unlock()
		return &mockToken{err: m.connectError, complete: true}
	}
	m.connected = true
	m.mu.Unlock()

	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &mockToken{complete: true}
}

func (m *mockMQTTClient) Disconnect(_ uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.disconnects++
}

func (m *mockMQTTClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMessage{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  payload,
	})
	return &mockToken{complete: true}
}

func (m *mockMQTTClient) Subscribe(topic string, qos byte, _ mqtt.MessageHandler) mqtt.Token {
	return m.SubscribeMultiple(map[string]byte{topic: qos}, nil)
}

func (m *mockMQTTClient) SubscribeMultiple(filters map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribed == nil {
		m.subscribed = make(map[string]byte)
	}
	for k, v := range filters {
		m.subscribed[k] = v
	}
	return &mockToken{complete: true}
}

func (*mockMQTTClient) Unsubscribe(_ ...string) mqtt.Token {
	return &mockToken{complete: true}
}

func (*mockMQTTClient) AddRoute(_ string, _ mqtt.MessageHandler) {}

func (*mockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func (m *mockMQTTClient) lastOn(topic string) (publishedMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.published) - 1; i >= 0; i-- {
		if m.published[i].topic == topic {
			return m.published[i], true
		}
	}
	return publishedMessage{}, false
}

// mockToken implements mqtt.Token for testing
type mockToken struct {
	err      error
	complete bool
}

func (*mockToken) Wait() bool { return true }

func (t *mockToken) WaitTimeout(_ time.Duration) bool { return t.complete }

func (*mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *mockToken) Error() error { return t.err }

// fakeController records submitted events.
type fakeController struct {
	mu     sync.Mutex
	events []scheduler.Event
	err    error
}

func (f *fakeController) Submit(_ context.Context, ev scheduler.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeController) last() scheduler.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

// mockMessage implements mqtt.Message for testing
type mockMessage struct {
	topic   string
	payload []byte
}

func (*mockMessage) Duplicate() bool   { return false }
func (*mockMessage) Qos() byte         { return 1 }
func (*mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string   { return m.topic }
func (*mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte { return m.payload }
func (*mockMessage) Ack()              {}
