// Package mqtt mirrors the dashboard onto an MQTT broker: every boatData
// snapshot is published and commands arriving on the command topics are fed
// into the dispatcher.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/dispatcher"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/streaming"
)

// Source identifies commands that arrived over MQTT.
const Source = "mqtt"

var errStopped = errors.New("mqtt bridge stopped")

// Config holds broker settings.
type Config struct {
	Broker      string // e.g. tcp://localhost:1883
	ClientID    string
	TopicPrefix string
}

// CommandDispatcher routes decoded commands.
type CommandDispatcher interface {
	Dispatch(dispatcher.Event) (any, error)
}

// Bridge is a paho client publishing snapshots and subscribing to commands.
type Bridge struct {
	client     paho.Client
	cfg        Config
	dispatcher CommandDispatcher
	logger     *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a bridge. Nothing is dialed until Connect.
func New(cfg Config, d CommandDispatcher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.TopicPrefix = strings.Trim(cfg.TopicPrefix, "/")

	b := &Bridge{
		cfg:        cfg,
		dispatcher: d,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// A clean session loses subscriptions on reconnect, so subscribe every
	// time the connection comes up.
	opts.SetOnConnectHandler(func(c paho.Client) {
		b.setConnected(true)
		b.logger.Info("MQTT connected", "broker", cfg.Broker)
		go b.subscribe(c)
	})

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		b.setConnected(false)
		b.logger.Warn("MQTT connection lost", "error", err)
	})

	b.client = paho.NewClient(opts)
	return b
}

// StateTopic is where snapshots are published.
func (b *Bridge) StateTopic() string {
	return b.cfg.TopicPrefix + "/" + streaming.TypeBoatData
}

// CommandTopic is the wildcard subscription for commands.
func (b *Bridge) CommandTopic() string {
	return b.cfg.TopicPrefix + "/cmd/+"
}

// Connect dials the broker and waits for the first connection, the context
// or Disconnect, whichever comes first.
func (b *Bridge) Connect(ctx context.Context) error {
	select {
	case <-b.stopCh:
		return errStopped
	default:
	}

	if b.IsConnected() {
		return nil
	}

	token := b.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			b.client.Disconnect(0)
			return ctx.Err()
		case <-b.stopCh:
			b.client.Disconnect(0)
			return errStopped
		default:
		}
	}
}

func (b *Bridge) subscribe(c paho.Client) {
	topic := b.CommandTopic()
	qos := byte(1) // At least once delivery

	token := c.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		b.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		b.logger.Error("MQTT subscribe timeout", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		b.logger.Error("MQTT subscribe failed", "topic", topic, "error", err)
		return
	}
	b.logger.Info("Subscribed to MQTT topic", "topic", topic, "qos", qos)
}

func (b *Bridge) handleMessage(topic string, payload []byte) {
	command, ok := CommandFromTopic(b.cfg.TopicPrefix, topic)
	if !ok {
		b.logger.Warn("Ignoring message on unexpected topic", "topic", topic)
		return
	}

	b.logger.Debug("Received MQTT command", "topic", topic, "command", command, "size", len(payload))

	_, err := b.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Payload:   json.RawMessage(payload),
		Source:    Source,
		Timestamp: time.Now(),
	})
	if err != nil {
		b.logger.Warn("Command ignored", "command", command, "error", err)
	}
}

// CommandFromTopic extracts the command name from <prefix>/cmd/<command>.
func CommandFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, strings.Trim(prefix, "/")+"/cmd/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// Publish forwards the payload of a boatData envelope to the state topic
// with QoS 0. While the broker is unreachable messages are discarded.
func (b *Bridge) Publish(data []byte) error {
	if !b.IsConnected() {
		return nil
	}

	env, err := streaming.Decode(data)
	if err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	if env.Type != streaming.TypeBoatData {
		return nil
	}

	// Fire and forget; the token completes once the packet is handed to the network.
	b.client.Publish(b.StateTopic(), 0, false, []byte(env.Payload))
	return nil
}

// IsConnected returns whether the client is connected.
func (b *Bridge) IsConnected() bool {
	b.mu.RLock()
	connected := b.connected
	b.mu.RUnlock()
	return connected && b.client.IsConnected()
}

func (b *Bridge) setConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

// Disconnect stops the bridge. Safe to call more than once.
func (b *Bridge) Disconnect() {
	b.stopOnce.Do(func() { close(b.stopCh) })

	if b.IsConnected() {
		token := b.client.Unsubscribe(b.CommandTopic())
		token.WaitTimeout(2 * time.Second)
	}

	b.client.Disconnect(250)
	b.setConnected(false)
	b.logger.Info("MQTT disconnected")
}
