package pipeline

import (
	"context"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
)

// ContactDirectory resolves the emergency phone numbers of a user.
// No numbers is not an error.
type ContactDirectory interface {
	Contacts(ctx context.Context, userID string) ([]string, error)
}

// SubscriberDirectory resolves who watches a user's alerts.
type SubscriberDirectory interface {
	Subscribers(ctx context.Context, userID string) ([]string, error)
}

// LocationSource yields one fix. A nil fix with a nil error means the
// provider answered without a position.
type LocationSource interface {
	RequestOneFix(ctx context.Context) (*alert.LocationFix, error)
}

// AlertTransport sends one text message.
type AlertTransport interface {
	Send(ctx context.Context, phoneNumber, text string) error
}

// NotificationSink shows local notifications and asks the user for grants.
type NotificationSink interface {
	Show(ctx context.Context, title, text string)
	PromptPermissions(ctx context.Context)
}

// RecordStore appends distress records.
type RecordStore interface {
	CreateRecord(ctx context.Context, record *alert.DistressRecord) error
}

// PermissionGate reports whether location and SMS are both granted.
type PermissionGate interface {
	HasLocationAndSMS(ctx context.Context) bool
}

// Dependencies groups the collaborators of a pipeline.
// Location and Permissions are optional: without a location source runs
// proceed with no fix, without a gate the grants are assumed.
type Dependencies struct {
	Contacts    ContactDirectory
	Subscribers SubscriberDirectory
	Location    LocationSource
	Transport   AlertTransport
	Sink        NotificationSink
	Records     RecordStore
	Permissions PermissionGate
}
