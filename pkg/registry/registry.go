package registry

import (
	"sort"
	"sync"
)

// Diff is the delta between the current union of registered PV names and
// the set last sent to the server.
type Diff struct {
	// ToSubscribe lists names present now but not yet sent.
	ToSubscribe []string

	// ToUnsubscribe lists names sent earlier but no longer wanted.
	ToUnsubscribe []string
}

// Empty reports whether the diff requires no network call.
func (d Diff) Empty() bool {
	return len(d.ToSubscribe) == 0 && len(d.ToUnsubscribe) == 0
}

// Registry maps widget identifiers to their PV interest sets and tracks
// the subscribe set last sent over the transport.
//
// A Registry is owned by one session. All methods are safe for concurrent
// use, though within a session mutations normally come from a single
// goroutine.
type Registry struct {
	mu sync.Mutex

	// widgets maps widgetID -> set of PV names.
	widgets map[string]map[string]struct{}

	// sent is the set last handed to the transport.
	sent map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		widgets: make(map[string]map[string]struct{}),
		sent:    make(map[string]struct{}),
	}
}

// Register records the PV names a widget is interested in, replacing any
// previous registration for the same widget. Call Diff afterwards to
// obtain the transport delta.
func (r *Registry) Register(widgetID string, pvNames []string) {
	set := make(map[string]struct{}, len(pvNames))
	for _, name := range pvNames {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgets[widgetID] = set
}

// Unregister removes a widget's registration. Unknown widget IDs are a
// no-op.
func (r *Registry) Unregister(widgetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.widgets, widgetID)
}

// Diff compares the current union of all registered PV names against the
// previously-sent set, records the union as sent, and returns the delta.
// Both result slices are sorted for deterministic wire messages.
func (r *Registry) Diff() Diff {
	r.mu.Lock()
	defer r.mu.Unlock()

	union := r.unionLocked()

	var d Diff
	for name := range union {
		if _, ok := r.sent[name]; !ok {
			d.ToSubscribe = append(d.ToSubscribe, name)
		}
	}
	for name := range r.sent {
		if _, ok := union[name]; !ok {
			d.ToUnsubscribe = append(d.ToUnsubscribe, name)
		}
	}

	r.sent = union
	sort.Strings(d.ToSubscribe)
	sort.Strings(d.ToUnsubscribe)
	return d
}

// Resync returns the full current union as ToSubscribe with an empty
// ToUnsubscribe, recording the union as sent. Used after a reconnect,
// when the server-side subscription state is assumed lost.
func (r *Registry) Resync() Diff {
	r.mu.Lock()
	defer r.mu.Unlock()

	union := r.unionLocked()
	r.sent = union

	d := Diff{ToSubscribe: make([]string, 0, len(union))}
	for name := range union {
		d.ToSubscribe = append(d.ToSubscribe, name)
	}
	sort.Strings(d.ToSubscribe)
	return d
}

// Sent returns a sorted copy of the set last sent to the transport.
func (r *Registry) Sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.sent))
	for name := range r.sent {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Union returns a sorted copy of the union of all registered PV names.
func (r *Registry) Union() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	union := r.unionLocked()
	names := make([]string, 0, len(union))
	for name := range union {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WidgetCount returns the number of registered widgets.
func (r *Registry) WidgetCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}

// unionLocked computes the union of all widget PV sets.
// Caller must hold r.mu.
func (r *Registry) unionLocked() map[string]struct{} {
	union := make(map[string]struct{})
	for _, set := range r.widgets {
		for name := range set {
			union[name] = struct{}{}
		}
	}
	return union
}
