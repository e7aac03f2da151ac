// internal/bridge/bridge.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	cfg "github.com/tamzrod/sign-controller/internal/config"
	"github.com/tamzrod/sign-controller/internal/scheduler"
	"github.com/tamzrod/sign-controller/internal/store"
)

const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"

	connectTimeout = 5 * time.Second
	submitTimeout  = 5 * time.Second
)

// Controller is the part of the scheduler the bridge drives.
type Controller interface {
	Submit(ctx context.Context, ev scheduler.Event) error
}

// Bridge routes external input to one sign: feed lists, commands and
// plain-text messages in, status and availability out. It works without a
// broker too; the API drives it through HandleCommand.
type Bridge struct {
	cfg     *cfg.Config
	ctl     Controller
	topics  Topics
	factory ClientFactory
	client  mqtt.Client
	started time.Time

	// policies is the display policy last handed to the scheduler.
	policies *store.Store

	ctx context.Context

	mu     sync.Mutex
	base   []string        // offline texts set by command; nil means configured list
	adhoc  []store.Message // posted messages, newest last
	feeds  map[string][]string
	trivia []string
	last   *StatusPayload
}

// New builds a bridge. Nothing connects until Start.
func New(c *cfg.Config, ctl Controller) (*Bridge, error) {
	policies, err := store.New(c.Policy())
	if err != nil {
		return nil, fmt.Errorf("mqtt bridge: %w", err)
	}

	return &Bridge{
		cfg:      c,
		ctl:      ctl,
		topics:   NewTopics(c.MQTT.Prefix, c.Sign.ID),
		factory:  DefaultClientFactory,
		started:  time.Now(),
		policies: policies,
		ctx:      context.Background(),
		feeds:    make(map[string][]string),
	}, nil
}

// Topics returns the topic layout in use.
func (b *Bridge) Topics() Topics { return b.topics }

// Policy returns the display policy last submitted.
func (b *Bridge) Policy() store.Policy { return b.policies.Load() }

// Start connects and subscribes. ctx bounds every event the bridge submits.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx

	opts := NewClientOptions(b.cfg.MQTT, b.cfg.Sign.ID)
	opts.SetWill(b.topics.Availability, availabilityOffline, b.cfg.MQTT.QoS, true)

	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Msgf("mqtt bridge: connected to %s", b.cfg.MQTT.Broker)

		// Subscribe on every connect so reconnects re-subscribe.
		qos := b.cfg.MQTT.QoS
		token := client.SubscribeMultiple(map[string]byte{
			b.topics.FeedLists: qos,
			b.topics.Trivia:    qos,
			b.topics.Command:   qos,
			b.topics.Message:   qos,
			b.topics.Broadcast: qos,
		}, b.route)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msg("mqtt bridge: subscribe failed")
			return
		}
		if b.cfg.MQTT.Discovery {
			b.announce()
		}
		b.publish(b.topics.Availability, true, availabilityOnline)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt bridge: connection lost")
	}

	b.client = b.factory(opts)

	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// connect retry continues in the background
		log.Warn().Msgf("mqtt bridge: %s not reachable yet, retrying", b.cfg.MQTT.Broker)
		return nil
	}
	if err := token.Error(); err != nil {
		b.client.Disconnect(0)
		b.client = nil
		return fmt.Errorf("mqtt bridge: connect: %w", err)
	}
	return nil
}

// Stop marks the sign offline and disconnects.
func (b *Bridge) Stop() {
	if b.client == nil {
		return
	}
	if b.client.IsConnected() {
		b.publish(b.topics.Availability, true, availabilityOffline)
	}
	b.client.Disconnect(250)
}

// PublishReport records the status document for one report and sends it
// retained when a broker is connected.
func (b *Bridge) PublishReport(r scheduler.Report) {
	p := statusPayload(r)
	b.mu.Lock()
	b.last = &p
	b.mu.Unlock()

	payload, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Msg("mqtt bridge: failed to marshal status")
		return
	}
	b.publish(b.topics.Status, true, payload)
}

// Info is the controller summary served by the API.
type Info struct {
	DeviceID  string         `json:"device_id"`
	Uptime    int64          `json:"uptime"`
	Connected bool           `json:"mqtt_connected"`
	Offline   int            `json:"offline_messages"`
	Status    *StatusPayload `json:"status,omitempty"`
}

func (b *Bridge) Info() Info {
	b.mu.Lock()
	last := b.last
	b.mu.Unlock()

	return Info{
		DeviceID:  b.config().Sign.ID,
		Uptime:    int64(time.Since(b.started).Seconds()),
		Connected: b.client != nil && b.client.IsConnected(),
		Offline:   len(b.policies.Load().Offline),
		Status:    last,
	}
}

func (b *Bridge) publish(topic string, retained bool, payload any) {
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	token := b.client.Publish(topic, b.config().MQTT.QoS, retained, payload)
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		log.Error().Err(token.Error()).Msgf("mqtt bridge: failed to publish %s", topic)
	}
}

// announce publishes the Home Assistant discovery documents.
func (b *Bridge) announce() {
	docs, err := discoveryMessages(b.config(), b.topics)
	if err != nil {
		log.Error().Err(err).Msg("mqtt bridge: discovery")
		return
	}
	for _, d := range docs {
		b.publish(d.Topic, true, d.Payload)
	}
	log.Debug().Int("entities", len(docs)).Msg("mqtt bridge: discovery published")
}

// ---- inbound ----

func (b *Bridge) route(_ mqtt.Client, msg mqtt.Message) {
	if err := b.Handle(msg.Topic(), msg.Payload()); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("mqtt bridge: message ignored")
	}
}

// Handle processes one inbound message.
func (b *Bridge) Handle(topic string, payload []byte) error {
	switch topic {
	case b.topics.Command:
		return b.HandleCommand(payload)
	case b.topics.Message, b.topics.Broadcast:
		return b.handleText(payload)
	case b.topics.Trivia:
		items, err := decodeTrivia(payload)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.trivia = items
		b.mu.Unlock()
		return b.rebuild(false)
	}

	name, err := b.topics.feedName(topic)
	if err != nil {
		return err
	}
	items, err := decodeList(payload)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if len(items) == 0 {
		delete(b.feeds, name)
	} else {
		b.feeds[name] = items
	}
	b.mu.Unlock()

	log.Debug().Str("feed", name).Int("items", len(items)).Msg("mqtt bridge: feed updated")
	return b.rebuild(false)
}

// HandleCommand runs one JSON command. Malformed commands wrap
// ErrInvalidCommand.
func (b *Bridge) HandleCommand(payload []byte) error {
	c, d, err := decodeCommand(payload)
	if err != nil {
		return err
	}
	log.Info().Str("command", c.Type).Msg("mqtt bridge: command")

	switch c.Type {
	case CommandMessage:
		return b.showMessage(c.Text, d, c.Style)
	case CommandPriority:
		return b.showPriority(c.Text, d, c.Style)
	case CommandCancel:
		return b.submit(scheduler.CancelPriority{})
	case CommandClear:
		return b.clear()
	case CommandTime:
		return b.submit(scheduler.SyncTime{})
	case CommandOffline:
		b.mu.Lock()
		b.base = append([]string{}, c.Messages...)
		b.mu.Unlock()
		return b.rebuild(false)
	}
	return fmt.Errorf("%w %q", ErrUnknownCommand, c.Type)
}

func (b *Bridge) handleText(payload []byte) error {
	p, err := parseText(payload)
	if err != nil {
		return err
	}
	if len(p.unknown) > 0 {
		log.Warn().Strs("options", p.unknown).Msg("mqtt bridge: unknown message options ignored")
	}

	switch p.kind {
	case textClear:
		return b.clear()
	case textPriority:
		return b.showPriority(p.text, 0, p.style)
	default:
		return b.showMessage(p.text, 0, p.style)
	}
}

// clear blanks the sign and drops posted messages with it.
func (b *Bridge) clear() error {
	b.mu.Lock()
	posted := len(b.adhoc) > 0
	b.adhoc = nil
	b.mu.Unlock()

	// the cleared sign re-shows from the shortened list
	if posted {
		if err := b.rebuild(false); err != nil {
			return err
		}
	}
	return b.submit(scheduler.Clear{})
}

func (b *Bridge) showPriority(text string, d time.Duration, st Style) error {
	p := b.policies.Load()
	ev := scheduler.ShowPriority{Text: cleanText(text, p.FileSize), Duration: d}
	if !st.empty() {
		a, err := st.apply(p.Priority.Attributes, b.config().Defaults.Effect)
		if err != nil {
			return fmt.Errorf("%w: priority: %w", ErrInvalidCommand, err)
		}
		ev.Attributes = &a
	}
	return b.submit(ev)
}

// showMessage adds text to the posted messages and brings it on screen.
// The oldest posted message goes once message_limit is reached.
func (b *Bridge) showMessage(text string, d time.Duration, st Style) error {
	c := b.config()
	text = cleanText(text, c.Sign.FileSize)
	if text == "" {
		return fmt.Errorf("%w: message without printable text", ErrInvalidCommand)
	}

	m := c.AdhocMessage(text)
	if d > 0 {
		m.Duration = d
	}
	if !st.empty() {
		a, err := st.apply(m.Attributes, c.Defaults.Effect)
		if err != nil {
			return fmt.Errorf("%w: message: %w", ErrInvalidCommand, err)
		}
		m.Attributes = a
	}
	if _, err := m.Attributes.ControlCodes(); err != nil {
		return fmt.Errorf("%w: message: %w", ErrInvalidCommand, err)
	}

	b.mu.Lock()
	b.adhoc = append(b.adhoc, m)
	if n := c.MQTT.MessageLimit; n > 0 && len(b.adhoc) > n {
		b.adhoc = append([]store.Message(nil), b.adhoc[len(b.adhoc)-n:]...)
	}
	b.mu.Unlock()

	log.Debug().Str("text", text).Msg("mqtt bridge: message posted")
	return b.rebuild(true)
}

// Messages returns the offline list the bridge would submit now: the base
// list, posted messages, every feed in name order, trivia last.
func (b *Bridge) Messages() []store.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out, _ := b.messagesLocked()
	return out
}

// messagesLocked also returns the index of the newest posted message, or 0
// when there is none.
func (b *Bridge) messagesLocked() ([]store.Message, int) {
	var out []store.Message
	if b.base == nil {
		out = b.cfg.Policy().Offline
	} else {
		for _, text := range b.base {
			if m, ok := b.feedMessage(text); ok {
				out = append(out, m)
			}
		}
	}

	newest := 0
	if len(b.adhoc) > 0 {
		out = append(out, b.adhoc...)
		newest = len(out) - 1
	}

	names := make([]string, 0, len(b.feeds))
	for name := range b.feeds {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([][]string, 0, len(names)+1)
	for _, name := range names {
		groups = append(groups, b.limit(b.feeds[name]))
	}
	groups = append(groups, b.trivia)

	for _, items := range groups {
		for _, text := range items {
			if m, ok := b.feedMessage(text); ok {
				out = append(out, m)
			}
		}
	}
	return out, newest
}

func (b *Bridge) limit(items []string) []string {
	if n := b.cfg.MQTT.FeedLimit; n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func (b *Bridge) feedMessage(text string) (store.Message, bool) {
	text = cleanText(text, b.cfg.Sign.FileSize)
	if text == "" {
		return store.Message{}, false
	}
	return b.cfg.FeedMessage(text), true
}

// Reconfigure adopts a reloaded configuration and submits the new policy
// with the feed items folded in. Broker and topics keep their startup
// values until restart.
func (b *Bridge) Reconfigure(c *cfg.Config) error {
	b.mu.Lock()
	b.cfg = c
	b.mu.Unlock()

	p := c.Policy()
	p.Offline = b.Messages()
	if err := b.policies.Swap(p); err != nil {
		return fmt.Errorf("mqtt bridge: reconfigure: %w", err)
	}
	return b.submit(scheduler.Reconfigure{Policy: b.policies.Load()})
}

func (b *Bridge) config() *cfg.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// rebuild submits the current offline list. showNewest starts rotation at
// the newest posted message instead of the top.
func (b *Bridge) rebuild(showNewest bool) error {
	b.mu.Lock()
	msgs, newest := b.messagesLocked()
	b.mu.Unlock()

	p, err := b.policies.ReplaceOffline(msgs)
	if err != nil {
		return fmt.Errorf("mqtt bridge: offline list: %w", err)
	}
	ev := scheduler.ReplaceOffline{Messages: p.Offline}
	if showNewest {
		ev.Start = newest
	}
	return b.submit(ev)
}

func (b *Bridge) submit(ev scheduler.Event) error {
	ctx, cancel := context.WithTimeout(b.ctx, submitTimeout)
	defer cancel()

	if err := b.ctl.Submit(ctx, ev); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mqtt bridge: submit %T: %w", ev, err)
	}
	return nil
}
