package widget

import (
	"fmt"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// NumericInput displays a single PV and lets the operator write a new
// value, clamped to the configured range.
type NumericInput struct {
	id     string
	pvName string
	label  string
	step   float64
	min    *float64
	max    *float64
	put    PutFunc

	cell valueCell
}

// NewNumericInput constructs a numeric input widget.
func NewNumericInput(def Definition, put PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	step := 1.0
	if def.Config.Step != nil {
		step = *def.Config.Step
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	return &NumericInput{
		id:     def.ID,
		pvName: def.PV,
		label:  label,
		step:   step,
		min:    def.Config.Min,
		max:    def.Config.Max,
		put:    put,
	}, nil
}

// ID returns the widget identifier.
func (w *NumericInput) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *NumericInput) Kind() string { return KindNumericInput }

// SubscribePVs returns the single configured PV.
func (w *NumericInput) SubscribePVs() []string { return []string{w.pvName} }

// Update stores the routed value.
func (w *NumericInput) Update(u pv.Update) {
	w.cell.set(u)
}

// Put writes a value to the PV, clamped to the configured range.
// With no PutFunc the write is dropped, matching the session's behavior
// while disconnected.
func (w *NumericInput) Put(value float64) error {
	if w.min != nil && value < *w.min {
		value = *w.min
	}
	if w.max != nil && value > *w.max {
		value = *w.max
	}
	if w.put == nil {
		return nil
	}
	return w.put(w.pvName, value)
}

// Step returns the configured increment.
func (w *NumericInput) Step() float64 { return w.step }

// Render returns "label: value".
func (w *NumericInput) Render() string {
	return fmt.Sprintf("%s: %s", w.label, w.cell.format(-1))
}
