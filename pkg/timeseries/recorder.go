package timeseries

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// DefaultMaxRawPoints is the per-PV raw buffer cap for the server-side
// recorder. When the cap is exceeded the buffer is bin-averaged down to
// half capacity, preserving the full time range.
const DefaultMaxRawPoints = 20000

// Recorder keeps a rolling history buffer per PV on the server side.
// It backs the bulk history endpoint queried by plot widgets.
type Recorder struct {
	mu        sync.Mutex
	histories map[string]*history
	maxRaw    int
}

type history struct {
	mu     sync.Mutex
	points []Point
	maxRaw int
}

// NewRecorder creates a recorder. maxRawPoints <= 0 selects the default.
func NewRecorder(maxRawPoints int) *Recorder {
	if maxRawPoints <= 0 {
		maxRawPoints = DefaultMaxRawPoints
	}
	return &Recorder{
		histories: make(map[string]*history),
		maxRaw:    maxRawPoints,
	}
}

// Record appends one value for a PV. The timestamp is in unix seconds as
// produced by the instrument layer. Non-numeric and non-finite values
// are dropped.
func (r *Recorder) Record(pvName string, value any, tsSeconds float64) {
	v, ok := pv.ToFloat(value)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	h := r.getOrCreate(pvName)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = append(h.points, Point{T: tsSeconds * 1000, V: v})
	if len(h.points) > h.maxRaw {
		// Compact to half capacity, keeping the full time range.
		h.points = Downsample(h.points, h.maxRaw/2)
	}
}

// History returns the points for a PV within the window ending at now,
// downsampled to at most maxPoints. An unknown PV returns nil.
func (r *Recorder) History(pvName string, window time.Duration, maxPoints int, now time.Time) []Point {
	r.mu.Lock()
	h := r.histories[pvName]
	r.mu.Unlock()
	if h == nil {
		return nil
	}

	cutoff := float64(now.UnixMilli()) - float64(window.Milliseconds())

	h.mu.Lock()
	idx := sort.Search(len(h.points), func(i int) bool {
		return h.points[i].T >= cutoff
	})
	filtered := make([]Point, len(h.points)-idx)
	copy(filtered, h.points[idx:])
	h.mu.Unlock()

	return Downsample(filtered, maxPoints)
}

// PVs returns the names of all PVs with recorded data.
func (r *Recorder) PVs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.histories))
	for name := range r.histories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Recorder) getOrCreate(pvName string) *history {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.histories[pvName]
	if h == nil {
		h = &history{maxRaw: r.maxRaw}
		r.histories[pvName] = h
	}
	return h
}
