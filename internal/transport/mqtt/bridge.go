package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/logger"
)

// Topic names below the configured prefix.
const (
	TopicScreen        = "screen"
	TopicNotifications = "notifications"
	TopicPrompts       = "prompts"
)

const (
	// qos is at-least-once: a lost screen event breaks the gesture.
	qos = 1
	// disconnectQuiesce is how long Close lets in-flight work finish, in milliseconds.
	disconnectQuiesce = 250
)

// errTimeout is returned when the broker does not acknowledge in time.
var errTimeout = errors.New("mqtt operation timed out")

// Bridge is a thin wrapper over a connected paho client.
type Bridge struct {
	client  paho.Client
	prefix  string
	timeout time.Duration
}

// Dial connects to the broker from settings.
func Dial(ctx context.Context, settings config.MQTT, timeout time.Duration) (*Bridge, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(settings.Broker)
	opts.SetClientID(settings.ClientID)

	if settings.Username != "" {
		opts.SetUsername(settings.Username)
	}

	if settings.Password != "" {
		opts.SetPassword(settings.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(timeout)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.WarnKV(ctx, "MQTT connection lost", "error", err)
	})

	bridge := NewBridge(paho.NewClient(opts), settings.TopicPrefix, timeout)

	if err := bridge.wait(bridge.client.Connect()); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", settings.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", settings.Broker)

	return bridge, nil
}

// NewBridge wraps an existing client.
func NewBridge(client paho.Client, prefix string, timeout time.Duration) *Bridge {
	return &Bridge{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		timeout: timeout,
	}
}

// Topic returns the full topic for name.
func (b *Bridge) Topic(name string) string {
	if b.prefix == "" {
		return name
	}

	return b.prefix + "/" + name
}

// Publish sends payload to the named topic and waits for the acknowledgement.
func (b *Bridge) Publish(ctx context.Context, name string, payload []byte) error {
	topic := b.Topic(name)

	if err := b.waitContext(ctx, b.client.Publish(topic, qos, false, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	return nil
}

// Subscribe calls handler with the payload of every message on the named topic.
func (b *Bridge) Subscribe(name string, handler func(payload []byte)) error {
	topic := b.Topic(name)

	token := b.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Payload())
	})

	if err := b.wait(token); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	return nil
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(disconnectQuiesce)
}

func (b *Bridge) wait(token paho.Token) error {
	if !token.WaitTimeout(b.timeout) {
		return errTimeout
	}

	return token.Error()
}

func (b *Bridge) waitContext(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
