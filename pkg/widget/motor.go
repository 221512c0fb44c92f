package widget

import (
	"fmt"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// Motor is a composite widget over one motor base name. It subscribes
// to the derived readback, setpoint and moving-flag channels and routes
// each update to the matching internal field by suffix.
type Motor struct {
	id        string
	basePV    string
	label     string
	precision int
	put       PutFunc

	readback valueCell
	setpoint valueCell
	moving   valueCell
}

// NewMotor constructs a motor widget. def.PV is the base name; the
// derived channel names must have it as a strict prefix.
func NewMotor(def Definition, put PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	precision := 3
	if def.Config.Precision != nil {
		precision = *def.Config.Precision
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	return &Motor{
		id:        def.ID,
		basePV:    def.PV,
		label:     label,
		precision: precision,
		put:       put,
	}, nil
}

// ID returns the widget identifier.
func (w *Motor) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *Motor) Kind() string { return KindMotor }

// SubscribePVs returns the derived channel names for the base.
func (w *Motor) SubscribePVs() []string {
	return pv.MotorNames(w.basePV)
}

// Update routes the update to the internal field matching the name's
// suffix beyond the base. Updates with an unknown suffix are dropped.
func (w *Motor) Update(u pv.Update) {
	suffix, ok := pv.MatchSuffix(w.basePV, u.Name)
	if !ok {
		return
	}
	switch suffix {
	case pv.SuffixReadback:
		w.readback.set(u)
	case pv.SuffixSetpoint:
		w.setpoint.set(u)
	case pv.SuffixMoving:
		w.moving.set(u)
	}
}

// Move writes a new setpoint to the motor's VAL channel.
func (w *Motor) Move(target float64) error {
	if w.put == nil {
		return nil
	}
	return w.put(w.basePV+pv.SuffixSetpoint, target)
}

// Readback returns the latest readback value.
func (w *Motor) Readback() (float64, bool) {
	v, _, ok := w.readback.get()
	return v, ok
}

// Setpoint returns the latest setpoint value.
func (w *Motor) Setpoint() (float64, bool) {
	v, _, ok := w.setpoint.get()
	return v, ok
}

// Moving reports whether the motor is in motion.
func (w *Motor) Moving() bool {
	v, _, ok := w.moving.get()
	return ok && v != 0
}

// Render returns "label: rbv -> val" with a moving marker.
func (w *Motor) Render() string {
	text := fmt.Sprintf("%s: %s -> %s",
		w.label,
		w.readback.format(w.precision),
		w.setpoint.format(w.precision),
	)
	if w.Moving() {
		text += " [MOVING]"
	}
	return text
}
