package widget

import (
	"errors"
	"fmt"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// Widget errors.
var (
	ErrUnknownKind = errors.New("unknown widget kind")
	ErrMissingPV   = errors.New("widget has no pv configured")
	ErrMissingID   = errors.New("widget has no id")
)

// Placeholder is rendered when a widget has no usable value, either
// because nothing arrived yet or because the last value was not numeric
// where a number was expected.
const Placeholder = "--"

// PutFunc writes a value to a PV. Widgets call it for operator-initiated
// writes; the session behind it drops the write when not connected.
type PutFunc func(pvName string, value any) error

// Widget is the capability interface implemented by every widget kind.
type Widget interface {
	// ID returns the widget's unique identifier within its dashboard.
	ID() string

	// Kind returns the widget kind tag ("readout", "plot", ...).
	Kind() string

	// SubscribePVs returns the PV names this widget wants routed to it.
	SubscribePVs() []string

	// Update consumes one routed PV update. Called only for names in
	// SubscribePVs; updates for other names must not reach the widget.
	Update(u pv.Update)

	// Render returns the widget's current state as a single line of text.
	Render() string
}

// Config holds the per-widget display and behavior settings.
// Unset pointers fall back to kind-specific defaults.
type Config struct {
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
	Units     string   `json:"units,omitempty" yaml:"units,omitempty"`
	Precision *int     `json:"precision,omitempty" yaml:"precision,omitempty"`
	Step      *float64 `json:"step,omitempty" yaml:"step,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Enum selector.
	EnumLabels []string `json:"enumLabels,omitempty" yaml:"enumLabels,omitempty"`

	// Gauge range.
	MinValue *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`

	// Plot bounds.
	MaxPoints  int     `json:"maxPoints,omitempty" yaml:"maxPoints,omitempty"`
	TimeWindow float64 `json:"timeWindow,omitempty" yaml:"timeWindow,omitempty"` // seconds
}

// Definition describes one widget in a dashboard layout document.
type Definition struct {
	ID     string `json:"id" yaml:"id"`
	Type   string `json:"type" yaml:"type"`
	PV     string `json:"pv" yaml:"pv"`
	Config Config `json:"config" yaml:"config"`
}

// Constructor builds a widget of one kind from its definition.
type Constructor func(def Definition, put PutFunc) (Widget, error)

// Registry maps widget kind tags to constructors. A Registry is built
// explicitly and passed to whoever loads dashboards; registering a kind
// after construction is allowed but not concurrency-safe.
type Registry struct {
	kinds map[string]Constructor
}

// NewRegistry creates an empty kind registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry with all built-in kinds registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterKind(KindReadout, NewReadout)
	r.RegisterKind(KindLED, NewLED)
	r.RegisterKind(KindGauge, NewGauge)
	r.RegisterKind(KindNumericInput, NewNumericInput)
	r.RegisterKind(KindEnumSelector, NewEnumSelector)
	r.RegisterKind(KindMotor, NewMotor)
	r.RegisterKind(KindPlot, NewPlot)
	return r
}

// RegisterKind adds or replaces the constructor for a kind.
func (r *Registry) RegisterKind(kind string, fn Constructor) {
	r.kinds[kind] = fn
}

// New builds a widget from its definition. put may be nil for read-only
// dashboards; widgets that need it treat a nil PutFunc as a dropped write.
func (r *Registry) New(def Definition, put PutFunc) (Widget, error) {
	if def.ID == "" {
		return nil, ErrMissingID
	}
	fn, ok := r.kinds[def.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, def.Type)
	}
	return fn(def, put)
}

// Kinds returns the registered kind tags.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	return out
}

// Built-in widget kind tags.
const (
	KindReadout      = "readout"
	KindLED          = "led"
	KindGauge        = "gauge"
	KindNumericInput = "numeric-input"
	KindEnumSelector = "enum-selector"
	KindMotor        = "motor"
	KindPlot         = "plot"
)

// tsToMillis converts an instrument timestamp (unix seconds) to the
// milliseconds used by time series points.
func tsToMillis(tsSeconds float64) float64 {
	return tsSeconds * 1000
}

// nowMillis returns the current wall time in milliseconds.
func nowMillis() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}
