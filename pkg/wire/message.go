package wire

import (
	"fmt"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// Message types.
const (
	// TypePVUpdate is a server-to-client value change event.
	TypePVUpdate = "pv_update"

	// TypeSubscribe is a client-to-server subscription request.
	TypeSubscribe = "subscribe"

	// TypeUnsubscribe is a client-to-server unsubscription request.
	TypeUnsubscribe = "unsubscribe"

	// TypePut is a client-to-server write request.
	TypePut = "put"
)

// PVUpdate is the server-to-client value change message.
type PVUpdate struct {
	Type      string  `json:"type"`
	PV        string  `json:"pv"`
	Value     any     `json:"value"`
	Timestamp float64 `json:"timestamp"`
	Severity  int     `json:"severity"`
}

// Validate checks the message for structural validity.
func (m *PVUpdate) Validate() error {
	if m.Type != TypePVUpdate {
		return fmt.Errorf("%w: type %q", ErrUnexpectedType, m.Type)
	}
	if m.PV == "" {
		return ErrMissingPV
	}
	return nil
}

// Update converts the wire message to a pv.Update.
// An out-of-range severity is mapped to INVALID rather than rejected.
func (m *PVUpdate) Update() pv.Update {
	sev := pv.Severity(m.Severity)
	if !sev.IsValid() {
		sev = pv.SeverityInvalid
	}
	return pv.Update{
		Name:      m.PV,
		Value:     m.Value,
		Timestamp: m.Timestamp,
		Severity:  sev,
	}
}

// Subscribe is the client-to-server subscription message.
type Subscribe struct {
	Type string   `json:"type"`
	PVs  []string `json:"pvs"`
}

// Unsubscribe is the client-to-server unsubscription message.
type Unsubscribe struct {
	Type string   `json:"type"`
	PVs  []string `json:"pvs"`
}

// Put is the client-to-server write message.
type Put struct {
	Type  string `json:"type"`
	PV    string `json:"pv"`
	Value any    `json:"value"`
}

// Validate checks the message for structural validity.
func (m *Put) Validate() error {
	if m.PV == "" {
		return ErrMissingPV
	}
	if m.Value == nil {
		return ErrMissingValue
	}
	return nil
}
