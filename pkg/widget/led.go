package widget

import (
	"fmt"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// LED displays a single PV as an on/off indicator. Any non-zero value
// is "on".
type LED struct {
	id     string
	pvName string
	label  string

	cell valueCell
}

// NewLED constructs an LED widget.
func NewLED(def Definition, _ PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	return &LED{id: def.ID, pvName: def.PV, label: label}, nil
}

// ID returns the widget identifier.
func (w *LED) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *LED) Kind() string { return KindLED }

// SubscribePVs returns the single configured PV.
func (w *LED) SubscribePVs() []string { return []string{w.pvName} }

// Update stores the routed value.
func (w *LED) Update(u pv.Update) {
	w.cell.set(u)
}

// On reports the indicator state. ok is false before the first value.
func (w *LED) On() (on, ok bool) {
	v, _, ok := w.cell.get()
	return v != 0, ok
}

// Render returns "label: ON" / "label: off".
func (w *LED) Render() string {
	on, ok := w.On()
	state := Placeholder
	if ok {
		if on {
			state = "ON"
		} else {
			state = "off"
		}
	}
	return fmt.Sprintf("%s: %s", w.label, state)
}
