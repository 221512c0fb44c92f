package demux

import (
	"sync"
	"testing"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// recordingWidget captures routed updates for assertions.
type recordingWidget struct {
	id  string
	pvs []string

	mu      sync.Mutex
	updates []pv.Update
}

func (w *recordingWidget) ID() string             { return w.id }
func (w *recordingWidget) Kind() string           { return "recording" }
func (w *recordingWidget) SubscribePVs() []string { return w.pvs }
func (w *recordingWidget) Render() string         { return "" }

func (w *recordingWidget) Update(u pv.Update) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, u)
}

func (w *recordingWidget) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.updates)
}

func TestRoute(t *testing.T) {
	t.Run("DeliversToSubscribers", func(t *testing.T) {
		r := NewRouter()
		w1 := &recordingWidget{id: "w1", pvs: []string{"BPM:X"}}
		w2 := &recordingWidget{id: "w2", pvs: []string{"BPM:X", "BPM:Y"}}
		w3 := &recordingWidget{id: "w3", pvs: []string{"RING:CURRENT"}}
		r.Add(w1)
		r.Add(w2)
		r.Add(w3)

		n := r.Route(pv.Update{Name: "BPM:X", Value: 1.0, Timestamp: 10})
		if n != 2 {
			t.Fatalf("delivered to %d widgets, want 2", n)
		}
		if w1.count() != 1 || w2.count() != 1 || w3.count() != 0 {
			t.Errorf("counts = %d/%d/%d, want 1/1/0", w1.count(), w2.count(), w3.count())
		}
	})

	t.Run("UnmatchedDroppedSilently", func(t *testing.T) {
		r := NewRouter()
		r.Add(&recordingWidget{id: "w1", pvs: []string{"BPM:X"}})

		n := r.Route(pv.Update{Name: "NOBODY:WANTS:THIS", Value: 1.0, Timestamp: 10})
		if n != 0 {
			t.Errorf("delivered to %d widgets, want 0", n)
		}
	})

	t.Run("RemoveStopsDelivery", func(t *testing.T) {
		r := NewRouter()
		w1 := &recordingWidget{id: "w1", pvs: []string{"BPM:X"}}
		r.Add(w1)
		r.Remove("w1")

		r.Route(pv.Update{Name: "BPM:X", Value: 1.0, Timestamp: 10})
		if w1.count() != 0 {
			t.Errorf("removed widget got %d updates", w1.count())
		}
		if got := len(r.PVs()); got != 0 {
			t.Errorf("PVs() has %d entries after removal, want 0", got)
		}
	})

	t.Run("ReAddPicksUpNewPVs", func(t *testing.T) {
		r := NewRouter()
		w := &recordingWidget{id: "w1", pvs: []string{"BPM:X"}}
		r.Add(w)

		w.pvs = []string{"BPM:Y"}
		r.Add(w)

		r.Route(pv.Update{Name: "BPM:X", Value: 1.0, Timestamp: 10})
		r.Route(pv.Update{Name: "BPM:Y", Value: 2.0, Timestamp: 11})
		if w.count() != 1 {
			t.Errorf("widget got %d updates, want 1", w.count())
		}
	})

	t.Run("EmptyNameIgnoredInIndex", func(t *testing.T) {
		r := NewRouter()
		r.Add(&recordingWidget{id: "w1", pvs: []string{"", "BPM:X"}})
		if got := len(r.PVs()); got != 1 {
			t.Errorf("PVs() has %d entries, want 1", got)
		}
	})
}

func TestRouteConcurrent(t *testing.T) {
	r := NewRouter()
	w := &recordingWidget{id: "w1", pvs: []string{"BPM:X"}}
	r.Add(w)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Route(pv.Update{Name: "BPM:X", Value: float64(j), Timestamp: float64(j)})
			}
		}()
	}
	for i := 0; i < 10; i++ {
		r.Add(&recordingWidget{id: "extra", pvs: []string{"BPM:Y"}})
		r.Remove("extra")
	}
	wg.Wait()

	if w.count() != 400 {
		t.Errorf("widget got %d updates, want 400", w.count())
	}
}
