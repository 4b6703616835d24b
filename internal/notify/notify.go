package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/transport/mqtt"
)

// Sink shows notifications and prompts for permissions.
type Sink interface {
	Show(ctx context.Context, title, text string)
	PromptPermissions(ctx context.Context)
}

// Publisher sends a payload to a named topic.
type Publisher interface {
	Publish(ctx context.Context, name string, payload []byte) error
}

// Notification is the payload published for Show.
type Notification struct {
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Prompt is the payload published for PromptPermissions.
type Prompt struct {
	Permissions []string  `json:"permissions"`
	Timestamp   time.Time `json:"timestamp"`
}

// Permissions requested by a prompt.
const (
	PermissionLocation = "location"
	PermissionSMS      = "sms"
)

// LogSink writes notifications to the log.
type LogSink struct{}

// Show logs the notification.
func (LogSink) Show(ctx context.Context, title, text string) {
	logger.InfoKV(ctx, "Notification", "title", title, "text", text)
}

// PromptPermissions logs the request.
func (LogSink) PromptPermissions(ctx context.Context) {
	logger.Warn(ctx, "Location and SMS permissions are required, grant them in the settings file")
}

// MQTTSink publishes notifications and prompts to the device.
type MQTTSink struct {
	publisher Publisher
	now       func() time.Time
}

// NewMQTTSink creates a sink publishing through publisher.
func NewMQTTSink(publisher Publisher) *MQTTSink {
	return &MQTTSink{publisher: publisher, now: time.Now}
}

// Show publishes a Notification. Failures are logged.
func (s *MQTTSink) Show(ctx context.Context, title, text string) {
	s.publish(ctx, mqtt.TopicNotifications, Notification{Title: title, Text: text, Timestamp: s.now()})
}

// PromptPermissions publishes a Prompt. Failures are logged.
func (s *MQTTSink) PromptPermissions(ctx context.Context) {
	s.publish(ctx, mqtt.TopicPrompts, Prompt{
		Permissions: []string{PermissionLocation, PermissionSMS},
		Timestamp:   s.now(),
	})
}

func (s *MQTTSink) publish(ctx context.Context, topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode notification", "topic", topic, "error", err)

		return
	}

	if err = s.publisher.Publish(ctx, topic, payload); err != nil {
		logger.ErrorKV(ctx, "Failed to publish notification", "topic", topic, "error", err)
	}
}

// MultiSink forwards every call to each sink in order.
type MultiSink []Sink

// Show forwards to every sink.
func (m MultiSink) Show(ctx context.Context, title, text string) {
	for _, sink := range m {
		sink.Show(ctx, title, text)
	}
}

// PromptPermissions forwards to every sink.
func (m MultiSink) PromptPermissions(ctx context.Context) {
	for _, sink := range m {
		sink.PromptPermissions(ctx)
	}
}

// StaticGate reports the grants from configuration.
type StaticGate struct {
	Location bool
	SMS      bool
}

// NewStaticGate builds a gate from the permissions section.
func NewStaticGate(permissions config.Permissions) StaticGate {
	return StaticGate{Location: permissions.Location, SMS: permissions.SMS}
}

// HasLocationAndSMS is true only when both grants are present.
func (g StaticGate) HasLocationAndSMS(context.Context) bool {
	return g.Location && g.SMS
}
