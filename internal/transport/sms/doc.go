// Package sms delivers SOS text messages.
//
// GatewayTransport posts each message to an HTTP SMS gateway. LogTransport
// only logs the message and is used when no gateway is configured.
package sms
