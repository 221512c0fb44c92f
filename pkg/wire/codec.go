package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// Codec errors.
var (
	ErrUnexpectedType = errors.New("unexpected message type")
	ErrMissingPV      = errors.New("message has no pv name")
	ErrMissingValue   = errors.New("message has no value")
)

// PeekType returns the "type" field of a message without fully decoding it.
func PeekType(data []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("failed to peek message type: %w", err)
	}
	return envelope.Type, nil
}

// EncodeUpdate encodes a pv.Update as a pv_update message.
func EncodeUpdate(u pv.Update) ([]byte, error) {
	return json.Marshal(PVUpdate{
		Type:      TypePVUpdate,
		PV:        u.Name,
		Value:     u.Value,
		Timestamp: u.Timestamp,
		Severity:  int(u.Severity),
	})
}

// DecodeUpdate decodes a pv_update message.
func DecodeUpdate(data []byte) (*PVUpdate, error) {
	var msg PVUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode pv_update: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pv_update: %w", err)
	}
	return &msg, nil
}

// EncodeSubscribe encodes a subscribe message for the given PV names.
func EncodeSubscribe(pvs []string) ([]byte, error) {
	return json.Marshal(Subscribe{Type: TypeSubscribe, PVs: pvs})
}

// EncodeUnsubscribe encodes an unsubscribe message for the given PV names.
func EncodeUnsubscribe(pvs []string) ([]byte, error) {
	return json.Marshal(Unsubscribe{Type: TypeUnsubscribe, PVs: pvs})
}

// EncodePut encodes a put message.
func EncodePut(pvName string, value any) ([]byte, error) {
	msg := Put{Type: TypePut, PV: pvName, Value: value}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid put: %w", err)
	}
	return json.Marshal(msg)
}

// DecodeSubscribe decodes a subscribe message.
func DecodeSubscribe(data []byte) (*Subscribe, error) {
	var msg Subscribe
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode subscribe: %w", err)
	}
	return &msg, nil
}

// DecodeUnsubscribe decodes an unsubscribe message.
func DecodeUnsubscribe(data []byte) (*Unsubscribe, error) {
	var msg Unsubscribe
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode unsubscribe: %w", err)
	}
	return &msg, nil
}

// DecodePut decodes a put message.
func DecodePut(data []byte) (*Put, error) {
	var msg Put
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode put: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid put: %w", err)
	}
	return &msg, nil
}
