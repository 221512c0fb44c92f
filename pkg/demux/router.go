package demux

import (
	"sync"

	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/widget"
)

// Router delivers PV updates to subscribed widgets. Widgets are added
// and removed by ID; the PV index is rebuilt from the widgets' declared
// subscriptions on every membership change, so a widget whose PV set
// changed must be re-added to take effect.
type Router struct {
	mu      sync.RWMutex
	widgets map[string]widget.Widget            // widget ID -> widget
	byPV    map[string]map[string]widget.Widget // pv name -> widget ID -> widget
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		widgets: make(map[string]widget.Widget),
		byPV:    make(map[string]map[string]widget.Widget),
	}
}

// Add registers a widget for routing, replacing any widget with the
// same ID.
func (r *Router) Add(w widget.Widget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgets[w.ID()] = w
	r.rebuildLocked()
}

// Remove deregisters a widget by ID. Removing an unknown ID is a no-op.
func (r *Router) Remove(widgetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.widgets[widgetID]; !ok {
		return
	}
	delete(r.widgets, widgetID)
	r.rebuildLocked()
}

// Route delivers one update to every widget subscribed to its name.
// Returns the number of widgets that received it. Updates nobody wants
// are dropped.
func (r *Router) Route(u pv.Update) int {
	r.mu.RLock()
	targets := r.byPV[u.Name]
	delivered := make([]widget.Widget, 0, len(targets))
	for _, w := range targets {
		delivered = append(delivered, w)
	}
	r.mu.RUnlock()

	// Deliver outside the lock; widget Update methods take their own
	// locks and may be slow to render.
	for _, w := range delivered {
		w.Update(u)
	}
	return len(delivered)
}

// PVs returns the set of PV names at least one widget subscribes to.
func (r *Router) PVs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byPV))
	for name := range r.byPV {
		out = append(out, name)
	}
	return out
}

// WidgetCount returns the number of registered widgets.
func (r *Router) WidgetCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.widgets)
}

func (r *Router) rebuildLocked() {
	index := make(map[string]map[string]widget.Widget, len(r.byPV))
	for id, w := range r.widgets {
		for _, name := range w.SubscribePVs() {
			if name == "" {
				continue
			}
			m, ok := index[name]
			if !ok {
				m = make(map[string]widget.Widget)
				index[name] = m
			}
			m[id] = w
		}
	}
	r.byPV = index
}
