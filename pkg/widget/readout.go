package widget

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// valueCell is the shared single-value state used by the simple widget
// kinds. It keeps the latest routed value and whether it was numeric.
type valueCell struct {
	mu       sync.Mutex
	value    float64
	severity pv.Severity
	ts       float64
	hasValue bool
	numeric  bool
}

// set stores the latest update. A non-numeric value marks the cell as
// non-numeric but still counts as received; routing continues for other
// widgets regardless.
func (c *valueCell) set(u pv.Update) {
	v, ok := u.Float()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasValue = true
	c.numeric = ok
	c.severity = u.Severity
	c.ts = u.Timestamp
	if ok {
		c.value = v
	}
}

// get returns the latest numeric value. ok is false when no numeric
// value has arrived.
func (c *valueCell) get() (float64, pv.Severity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.severity, c.hasValue && c.numeric
}

// format renders the value with the given precision, or the placeholder.
func (c *valueCell) format(precision int) string {
	v, _, ok := c.get()
	if !ok {
		return Placeholder
	}
	if precision < 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// Readout displays the latest value of a single PV with configurable
// precision and units.
type Readout struct {
	id        string
	pvName    string
	label     string
	units     string
	precision int

	cell valueCell
}

// NewReadout constructs a readout widget.
func NewReadout(def Definition, _ PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	precision := -1
	if def.Config.Precision != nil {
		precision = *def.Config.Precision
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	return &Readout{
		id:        def.ID,
		pvName:    def.PV,
		label:     label,
		units:     def.Config.Units,
		precision: precision,
	}, nil
}

// ID returns the widget identifier.
func (w *Readout) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *Readout) Kind() string { return KindReadout }

// SubscribePVs returns the single configured PV.
func (w *Readout) SubscribePVs() []string { return []string{w.pvName} }

// Update stores the routed value.
func (w *Readout) Update(u pv.Update) {
	w.cell.set(u)
}

// Render returns "label: value units [severity]".
func (w *Readout) Render() string {
	text := w.cell.format(w.precision)
	if w.units != "" && text != Placeholder {
		text += " " + w.units
	}
	if _, sev, ok := w.cell.get(); ok && sev != pv.SeverityNone {
		text += fmt.Sprintf(" [%s]", sev)
	}
	return fmt.Sprintf("%s: %s", w.label, text)
}

// Value returns the latest numeric value for tests and composition.
func (w *Readout) Value() (float64, bool) {
	v, _, ok := w.cell.get()
	return v, ok
}
