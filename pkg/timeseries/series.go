package timeseries

import (
	"math"
	"sync"
	"time"
)

// Default plot buffer bounds, matching the default plot widget config.
const (
	DefaultMaxPoints = 500
	DefaultWindow    = time.Hour

	// compactSlack is the growth factor allowed before compaction fires.
	compactSlack = 1.5
)

// Series is a bounded append-only buffer owned by a single plot widget.
//
// Invariants after any mutation: points are sorted by T ascending,
// len(points) <= maxPoints * 1.5, and no point is older than the window
// relative to the newest append. Duplicate timestamps are permitted and
// not deduplicated.
//
// The inbound message path is the only writer; renderers read through
// Snapshot, which copies under the lock.
type Series struct {
	mu sync.Mutex

	points    []Point
	maxPoints int
	window    time.Duration
}

// NewSeries creates a series with the given bounds. Non-positive
// arguments fall back to the defaults.
func NewSeries(maxPoints int, window time.Duration) *Series {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Series{
		maxPoints: maxPoints,
		window:    window,
	}
}

// Append adds one point at the tail, prunes expired points and compacts
// if the buffer exceeded its slack bound. Points with a non-finite value
// are silently dropped.
func (s *Series) Append(p Point) {
	if math.IsNaN(p.V) || math.IsInf(p.V, 0) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = append(s.points, p)
	s.pruneLocked(p.T)
	s.compactLocked()
}

// PruneExpired removes points older than the window relative to now
// (milliseconds since the unix epoch).
func (s *Series) PruneExpired(now float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
}

// CompactIfNeeded bin-averages the buffer down to maxPoints when it has
// grown past maxPoints * 1.5. A buffer whose points all share one
// timestamp is left untouched.
func (s *Series) CompactIfNeeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compactLocked()
}

// Snapshot returns a copy of the current points in time order.
func (s *Series) Snapshot() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Replace substitutes the buffer contents, used when a history backfill
// merge produces the authoritative series. The input must be sorted by T.
func (s *Series) Replace(points []Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = append(s.points[:0], points...)
	s.compactLocked()
}

// Len returns the current number of buffered points.
func (s *Series) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

// SetBounds updates maxPoints and window at runtime. The buffer is not
// resized retroactively; the next append/compact cycle converges to the
// new bounds.
func (s *Series) SetBounds(maxPoints int, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxPoints > 0 {
		s.maxPoints = maxPoints
	}
	if window > 0 {
		s.window = window
	}
}

// pruneLocked drops points from the head while they are older than the
// window. Caller must hold s.mu.
func (s *Series) pruneLocked(now float64) {
	cutoff := now - float64(s.window.Milliseconds())
	i := 0
	for i < len(s.points) && s.points[i].T < cutoff {
		i++
	}
	if i > 0 {
		s.points = s.points[:copy(s.points, s.points[i:])]
	}
}

// compactLocked fires only above the slack bound. Caller must hold s.mu.
func (s *Series) compactLocked() {
	if float64(len(s.points)) <= float64(s.maxPoints)*compactSlack {
		return
	}

	t0 := s.points[0].T
	tRange := s.points[len(s.points)-1].T - t0
	if tRange <= 0 {
		// Degenerate: all points at the same timestamp.
		return
	}

	binWidth := tRange / float64(s.maxPoints)
	s.points = binAverage(s.points, t0, binWidth, s.maxPoints)
}
