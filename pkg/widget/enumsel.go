package widget

import (
	"fmt"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// EnumSelector displays a small-integer PV as one of a set of labels and
// writes the selected index back.
type EnumSelector struct {
	id     string
	pvName string
	label  string
	labels []string
	put    PutFunc

	cell valueCell
}

// NewEnumSelector constructs an enum selector widget.
func NewEnumSelector(def Definition, put PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	return &EnumSelector{
		id:     def.ID,
		pvName: def.PV,
		label:  label,
		labels: def.Config.EnumLabels,
		put:    put,
	}, nil
}

// ID returns the widget identifier.
func (w *EnumSelector) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *EnumSelector) Kind() string { return KindEnumSelector }

// SubscribePVs returns the single configured PV.
func (w *EnumSelector) SubscribePVs() []string { return []string{w.pvName} }

// Update stores the routed value.
func (w *EnumSelector) Update(u pv.Update) {
	w.cell.set(u)
}

// Select writes the given option index to the PV.
func (w *EnumSelector) Select(index int) error {
	if index < 0 || (len(w.labels) > 0 && index >= len(w.labels)) {
		return fmt.Errorf("enum index %d out of range", index)
	}
	if w.put == nil {
		return nil
	}
	return w.put(w.pvName, index)
}

// Current returns the current option index and its label.
// ok is false before the first numeric value arrives.
func (w *EnumSelector) Current() (index int, label string, ok bool) {
	v, _, ok := w.cell.get()
	if !ok {
		return 0, "", false
	}
	index = int(v)
	if index >= 0 && index < len(w.labels) {
		label = w.labels[index]
	} else {
		label = fmt.Sprintf("%d", index)
	}
	return index, label, true
}

// Render returns "label: current-option".
func (w *EnumSelector) Render() string {
	_, label, ok := w.Current()
	if !ok {
		label = Placeholder
	}
	return fmt.Sprintf("%s: %s", w.label, label)
}
