package sentinel

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

// Struct field names of the monitoring messages.
const (
	FieldArmed     = "armed"
	FieldTimestamp = "timestamp"
	FieldHostname  = "hostname"
	FieldUsername  = "username"
)

var (
	// ErrArmedRequired is returned when a SetMonitoring request lacks the armed flag.
	ErrArmedRequired = errors.New("armed flag is required")
	// errFieldType is returned when a field holds the wrong kind of value.
	errFieldType = errors.New("unexpected field type")
)

// EncodeState converts a monitoring state to its wire form.
func EncodeState(state *monitoring.State) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldArmed: structpb.NewBoolValue(state.IsArmed()),
	}

	if state == nil {
		return &structpb.Struct{Fields: fields}
	}

	if !state.Timestamp.IsZero() {
		fields[FieldTimestamp] = structpb.NewStringValue(state.Timestamp.UTC().Format(time.RFC3339Nano))
	}

	if state.LastActor != nil {
		fields[FieldHostname] = structpb.NewStringValue(state.LastActor.Hostname)
		fields[FieldUsername] = structpb.NewStringValue(state.LastActor.Username)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeState parses a state produced by EncodeState.
func DecodeState(msg *structpb.Struct) (*monitoring.State, error) {
	armed, err := boolField(msg, FieldArmed)
	if err != nil {
		return nil, err
	}

	state := &monitoring.State{Armed: armed}

	if raw, ok := stringField(msg, FieldTimestamp); ok {
		if state.Timestamp, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", FieldTimestamp, err)
		}
	}

	state.LastActor = decodeActor(msg)

	return state, nil
}

// EncodeSetRequest builds a SetMonitoring request.
func EncodeSetRequest(actor *monitoring.Actor, armed bool) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldArmed: structpb.NewBoolValue(armed),
	}

	if actor != nil {
		fields[FieldHostname] = structpb.NewStringValue(actor.Hostname)
		fields[FieldUsername] = structpb.NewStringValue(actor.Username)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSetRequest parses a SetMonitoring request.
func DecodeSetRequest(msg *structpb.Struct) (*monitoring.Actor, bool, error) {
	armed, err := boolField(msg, FieldArmed)
	if err != nil {
		return nil, false, err
	}

	return decodeActor(msg), armed, nil
}

func decodeActor(msg *structpb.Struct) *monitoring.Actor {
	hostname, hasHost := stringField(msg, FieldHostname)
	username, hasUser := stringField(msg, FieldUsername)

	if !hasHost && !hasUser {
		return nil
	}

	return &monitoring.Actor{Hostname: hostname, Username: username}
}

func boolField(msg *structpb.Struct, name string) (bool, error) {
	value, ok := msg.GetFields()[name]
	if !ok {
		return false, ErrArmedRequired
	}

	flag, ok := value.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s", errFieldType, name)
	}

	return flag.BoolValue, nil
}

func stringField(msg *structpb.Struct, name string) (string, bool) {
	value, ok := msg.GetFields()[name]
	if !ok {
		return "", false
	}

	text, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}

	return text.StringValue, true
}
