package widget

import (
	"fmt"
	"sync"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/timeseries"
)

// Plot accumulates a bounded time series for a single PV. Live updates
// append to the buffer; a one-shot history backfill is merged in once
// its fetch resolves. The plot owns its series exclusively.
type Plot struct {
	id    string
	label string

	mu     sync.Mutex
	pvName string
	series *timeseries.Series
}

// NewPlot constructs a plot widget.
func NewPlot(def Definition, _ PutFunc) (Widget, error) {
	if def.PV == "" {
		return nil, ErrMissingPV
	}
	label := def.Config.Label
	if label == "" {
		label = def.PV
	}
	window := timeseries.DefaultWindow
	if def.Config.TimeWindow > 0 {
		window = time.Duration(def.Config.TimeWindow * float64(time.Second))
	}
	return &Plot{
		id:     def.ID,
		label:  label,
		pvName: def.PV,
		series: timeseries.NewSeries(def.Config.MaxPoints, window),
	}, nil
}

// ID returns the widget identifier.
func (w *Plot) ID() string { return w.id }

// Kind returns the widget kind tag.
func (w *Plot) Kind() string { return KindPlot }

// SubscribePVs returns the single plotted PV.
func (w *Plot) SubscribePVs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return []string{w.pvName}
}

// PV returns the currently plotted PV name.
func (w *Plot) PV() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pvName
}

// Update appends one live point to the series.
func (w *Plot) Update(u pv.Update) {
	v, ok := u.Float()
	if !ok {
		return
	}
	w.mu.Lock()
	series := w.series
	w.mu.Unlock()

	series.Append(timeseries.Point{T: tsToMillis(u.Timestamp), V: v})
}

// SetPV switches the plot to a new PV, discarding all accumulated
// points. Any in-flight history fetch for the old PV becomes stale and
// is rejected by ApplyHistory.
func (w *Plot) SetPV(pvName string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pvName == w.pvName {
		return
	}
	w.pvName = pvName
	w.series.Replace(nil)
}

// ApplyHistory merges a fetched history snapshot with the live points
// that accumulated while the fetch was in flight. The fetch's
// originating PV must still match the plot's current PV; a stale
// response is discarded and ok is false.
func (w *Plot) ApplyHistory(fetchedPV string, history []timeseries.Point) (ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fetchedPV != w.pvName {
		return false
	}

	live := w.series.Snapshot()
	w.series.Replace(timeseries.MergeBackfill(history, live))
	return true
}

// Snapshot returns a copy of the current series for rendering.
func (w *Plot) Snapshot() []timeseries.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.series.Snapshot()
}

// SetBounds changes maxPoints and window at runtime. The buffer
// converges to the new bounds on the next append/compact cycle.
func (w *Plot) SetBounds(maxPoints int, window time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.series.SetBounds(maxPoints, window)
}

// Render returns a one-line summary of the series.
func (w *Plot) Render() string {
	points := w.Snapshot()
	if len(points) == 0 {
		return fmt.Sprintf("%s: %s", w.label, Placeholder)
	}
	last := points[len(points)-1]
	return fmt.Sprintf("%s: %d pts, latest %g", w.label, len(points), last.V)
}
