package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/version"
)

var (
	// ErrEmptyNumber is returned for a blank destination.
	ErrEmptyNumber = errors.New("phone number is empty")
	// errGatewayRejected is returned when the gateway answers with an error code.
	errGatewayRejected = errors.New("sms gateway rejected message")
)

// message is the JSON body posted to the gateway.
type message struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// gatewayError is the optional JSON error body of the gateway.
type gatewayError struct {
	Error string `json:"error"`
}

// GatewayTransport sends messages through an HTTP gateway.
// One attempt per message: a second alert is the retry.
type GatewayTransport struct {
	client *resty.Client
	url    string
	sender string
}

// NewGatewayTransport creates a transport posting to url with a bearer apiKey.
func NewGatewayTransport(url, apiKey, sender string, timeout time.Duration) *GatewayTransport {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent())

	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &GatewayTransport{client: client, url: url, sender: sender}
}

// Send posts one message.
func (g *GatewayTransport) Send(ctx context.Context, phoneNumber, text string) error {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return ErrEmptyNumber
	}

	var failure gatewayError

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(message{To: phoneNumber, From: g.sender, Text: text}).
		SetError(&failure).
		Post(g.url)
	if err != nil {
		return fmt.Errorf("post sms: %w", err)
	}

	if resp.IsError() {
		if failure.Error != "" {
			return fmt.Errorf("%w: %s: %s", errGatewayRejected, resp.Status(), failure.Error)
		}

		return fmt.Errorf("%w: %s", errGatewayRejected, resp.Status())
	}

	return nil
}

// LogTransport records messages in the log instead of sending them.
type LogTransport struct{}

// Send logs the message.
func (LogTransport) Send(ctx context.Context, phoneNumber, text string) error {
	if strings.TrimSpace(phoneNumber) == "" {
		return ErrEmptyNumber
	}

	logger.InfoKV(ctx, "SMS gateway not configured, message logged only",
		"phone_number", phoneNumber,
		"text", text)

	return nil
}
