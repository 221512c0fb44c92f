package instrument

import (
	"errors"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// Provider errors.
var (
	ErrUnknownPV  = errors.New("unknown pv")
	ErrNotRunning = errors.New("provider not running")
)

// Callback receives one PV update. Callbacks run on provider
// goroutines and must not block.
type Callback func(u pv.Update)

// Provider monitors process variables. Subscriptions are keyed by
// (subscriber, pv): subscribing the same pair again replaces the
// callback instead of duplicating it, and a new subscription is primed
// immediately with the cached current value when one exists.
type Provider interface {
	// Subscribe registers a callback for a PV on behalf of subscriberID.
	Subscribe(pvName, subscriberID string, cb Callback)

	// Unsubscribe removes the (subscriber, pv) registration.
	// Unknown pairs are a no-op.
	Unsubscribe(pvName, subscriberID string)

	// Put writes a value to a PV.
	Put(pvName string, value any) error

	// Current returns the most recently cached update for a PV.
	Current(pvName string) (pv.Update, bool)
}
