package widget

import (
	"fmt"
	"strings"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// gaugeBarWidth is the character width of the rendered bar.
const gaugeBarWidth = 20

// Gauge displays a single PV as a filled bar between a configured
// minimum and maximum.
type Gauge struct {
	id     string
	pvName string
	label  string
	min    float64
	max    float64

	cell valueCell
}

// NewGauge constructs a gauge widget. The default range is [0, 100].
func NewGauge(def Definition, _ PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	min, max := 0.0, 100.0
	if def.Config.MinValue != nil {
		min = *def.Config.MinValue
	}
	if def.Config.MaxValue != nil {
		max = *def.Config.MaxValue
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	return &Gauge{id: def.ID, pvName: def.PV, label: label, min: min, max: max}, nil
}

// ID returns the widget identifier.
func (w *Gauge) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *Gauge) Kind() string { return KindGauge }

// SubscribePVs returns the single configured PV.
func (w *Gauge) SubscribePVs() []string { return []string{w.pvName} }

// Update stores the routed value.
func (w *Gauge) Update(u pv.Update) {
	w.cell.set(u)
}

// Fraction returns the value position within [min, max], clamped to
// [0, 1]. ok is false before the first numeric value.
func (w *Gauge) Fraction() (float64, bool) {
	v, _, ok := w.cell.get()
	if !ok || w.max <= w.min {
		return 0, ok && w.max > w.min
	}
	f := (v - w.min) / (w.max - w.min)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f, true
}

// Render returns "label: [####----] value".
func (w *Gauge) Render() string {
	f, ok := w.Fraction()
	if !ok {
		return fmt.Sprintf("%s: %s", w.label, Placeholder)
	}
	filled := int(f * gaugeBarWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", gaugeBarWidth-filled)
	return fmt.Sprintf("%s: [%s] %s", w.label, bar, w.cell.format(-1))
}
