package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies a device lifecycle event. Kinds serialize as their symbolic
// name so producer and consumer stay compatible if the set is reordered.
type Kind string

const (
	KindRegistered Kind = "Registered"
	KindDeleted    Kind = "Deleted"
)

// RegisteredDetails carries the device fields of a Registered event.
type RegisteredDetails struct {
	DeviceType    string `json:"deviceType"`
	Name          string `json:"name"`
	Model         string `json:"model"`
	DeviceAddress string `json:"deviceAddress"`
	SerialNumber  string `json:"serialNumber"`
	Status        string `json:"status"`
	UserID        string `json:"userId"`
	HomeID        string `json:"homeId"`
}

// Envelope is the wire-level lifecycle event. Details is set for Registered
// events and nil for Deleted events. The cross-field constraint is enforced
// by the apply handler, not here: the codec passes mismatches through so the
// consumer can surface them with full context.
type Envelope struct {
	DeviceID uuid.UUID          `json:"deviceId"`
	Kind     Kind               `json:"deviceEvent"`
	Details  *RegisteredDetails `json:"details,omitempty"`
}

// DecodeError marks a malformed envelope. It is a logic error, not a
// transport error: retrying the same bytes cannot succeed.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode envelope: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode envelope: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode serializes an envelope to its wire form.
func Encode(env Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope for device %s: %w", env.DeviceID, err)
	}
	return b, nil
}

// Decode parses wire bytes into an envelope. Unknown event kinds decode
// successfully; callers decide whether to skip them. Malformed JSON, an
// invalid device id, or a missing event kind yield a *DecodeError.
func Decode(data []byte) (Envelope, error) {
	var raw struct {
		DeviceID string             `json:"deviceId"`
		Kind     string             `json:"deviceEvent"`
		Details  *RegisteredDetails `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	if raw.Kind == "" {
		return Envelope{}, &DecodeError{Reason: "missing deviceEvent field"}
	}
	id, err := uuid.Parse(raw.DeviceID)
	if err != nil {
		return Envelope{}, &DecodeError{Reason: fmt.Sprintf("invalid deviceId %q", raw.DeviceID), Err: err}
	}
	return Envelope{DeviceID: id, Kind: Kind(raw.Kind), Details: raw.Details}, nil
}
