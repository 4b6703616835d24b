package alert

import (
	"time"

	"github.com/google/uuid"
)

const (
	// StatusTitle is the title of the local status notifications.
	StatusTitle = "SOS Alert"
	// GeneratingText is shown as soon as the gesture is recognized.
	GeneratingText = "Generating SOS alert!"
	// SuccessText is shown once every send was attempted.
	SuccessText = "SOS alert generated successfully!"

	// ArmedTitle and ArmedText announce that monitoring is on.
	ArmedTitle = "SOS is enabled"
	ArmedText  = "Monitoring SOS enabled!"

	// RecordTitle is the title of every distress record.
	RecordTitle = "SOS Alert!"

	// messagePrefix starts every outgoing text and record message.
	messagePrefix = "SOS Alert! Please help. Current location: "
	// noLocation replaces the map link when no fix was obtained.
	noLocation = "unavailable"
)

// Message builds the SOS text for a map link; an empty link means no fix.
func Message(mapLink string) string {
	if mapLink == "" {
		return messagePrefix + noLocation
	}

	return messagePrefix + mapLink
}

// DistressRecord is the persisted notice addressed to one subscriber.
type DistressRecord struct {
	// ID is the record key in the store.
	ID string
	// UserID is the recipient, not the user in distress.
	UserID string
	// Title is always RecordTitle for records produced by a run.
	Title string
	// Message is the same text the contacts received.
	Message string
	// Read flips when the recipient opens it; always false at creation.
	Read bool
	// Timestamp is the creation time.
	Timestamp time.Time
}

// NewDistressRecord creates an unread record for recipient.
func NewDistressRecord(recipient, message string, now time.Time) *DistressRecord {
	return &DistressRecord{
		ID:        uuid.NewString(),
		UserID:    recipient,
		Title:     RecordTitle,
		Message:   message,
		Read:      false,
		Timestamp: now,
	}
}
