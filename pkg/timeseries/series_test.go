package timeseries

import (
	"math"
	"sort"
	"testing"
	"time"
)

func TestAppend(t *testing.T) {
	t.Run("RejectsNonFinite", func(t *testing.T) {
		s := NewSeries(10, time.Hour)
		s.Append(Point{T: 1, V: math.NaN()})
		s.Append(Point{T: 2, V: math.Inf(1)})
		s.Append(Point{T: 3, V: math.Inf(-1)})
		s.Append(Point{T: 4, V: 1.5})

		if got := s.Len(); got != 1 {
			t.Errorf("Len() = %d, want 1", got)
		}
	})

	t.Run("PrunesOnAppend", func(t *testing.T) {
		s := NewSeries(100, time.Second)
		s.Append(Point{T: 0, V: 1})
		s.Append(Point{T: 500, V: 2})
		s.Append(Point{T: 2000, V: 3}) // pushes cutoff to 1000

		snap := s.Snapshot()
		if len(snap) != 2 {
			t.Fatalf("Len() = %d, want 2", len(snap))
		}
		if snap[0].T != 500 {
			t.Errorf("head T = %v, want 500", snap[0].T)
		}
	})

	t.Run("SlackBoundHolds", func(t *testing.T) {
		s := NewSeries(100, time.Hour)
		for i := 0; i < 1000; i++ {
			s.Append(Point{T: float64(i), V: float64(i)})
			if got := s.Len(); float64(got) > 100*1.5 {
				t.Fatalf("after %d appends Len() = %d, exceeds 150", i+1, got)
			}
		}
	})
}

func TestPruneExpired(t *testing.T) {
	s := NewSeries(100, 10*time.Second)
	for i := 0; i < 50; i++ {
		s.Append(Point{T: float64(i * 1000), V: float64(i)})
	}

	now := 60000.0
	s.PruneExpired(now)

	for _, p := range s.Snapshot() {
		if p.T < now-10000 {
			t.Errorf("point T=%v older than cutoff %v", p.T, now-10000)
		}
	}
}

func TestCompactIfNeeded(t *testing.T) {
	t.Run("BelowThresholdNoop", func(t *testing.T) {
		s := NewSeries(500, time.Hour)
		for i := 0; i < 700; i++ {
			s.Append(Point{T: float64(i), V: float64(i)})
		}
		if got := s.Len(); got != 700 {
			t.Errorf("Len() = %d, want 700 (no compaction below 750)", got)
		}
	})

	t.Run("UniformSpanCompactsToMaxPoints", func(t *testing.T) {
		// Plot widget with maxPoints=500 accumulating 760 points over
		// t=[0,10000]ms: bin width is 20ms and every bin is non-empty,
		// so compaction yields exactly 500 averaged points.
		s := NewSeries(500, time.Hour)
		points := make([]Point, 760)
		for i := range points {
			points[i] = Point{
				T: float64(i) * 10000 / 759,
				V: float64(i),
			}
		}
		s.points = points

		s.CompactIfNeeded()

		snap := s.Snapshot()
		if len(snap) != 500 {
			t.Fatalf("Len() = %d, want 500", len(snap))
		}
		if !sort.SliceIsSorted(snap, func(i, j int) bool { return snap[i].T < snap[j].T }) {
			t.Error("compacted points not sorted by T")
		}
	})

	t.Run("DegenerateTimestampsNoop", func(t *testing.T) {
		s := NewSeries(10, time.Hour)
		points := make([]Point, 40)
		for i := range points {
			points[i] = Point{T: 1000, V: float64(i)}
		}
		s.points = points

		s.CompactIfNeeded()

		if got := s.Len(); got != 40 {
			t.Errorf("Len() = %d, want 40 (zero bin width is a no-op)", got)
		}
	})

	t.Run("PreservesAverages", func(t *testing.T) {
		s := NewSeries(2, time.Hour)
		s.points = []Point{
			{T: 0, V: 10}, {T: 10, V: 20},
			{T: 100, V: 30}, {T: 110, V: 50},
		}

		s.CompactIfNeeded()

		snap := s.Snapshot()
		if len(snap) != 2 {
			t.Fatalf("Len() = %d, want 2", len(snap))
		}
		if snap[0].V != 15 || snap[1].V != 40 {
			t.Errorf("bin averages = %v, %v, want 15, 40", snap[0].V, snap[1].V)
		}
	})
}

func TestSetBounds(t *testing.T) {
	s := NewSeries(1000, time.Hour)
	for i := 0; i < 800; i++ {
		s.Append(Point{T: float64(i), V: float64(i)})
	}

	// Shrinking the bounds does not resize retroactively.
	s.SetBounds(100, time.Hour)
	if got := s.Len(); got != 800 {
		t.Errorf("Len() = %d immediately after SetBounds, want 800", got)
	}

	// The next append converges to the new bound.
	s.Append(Point{T: 800, V: 800})
	if got := s.Len(); got > 150 {
		t.Errorf("Len() = %d after append, want <= 150", got)
	}
}

func TestDownsample(t *testing.T) {
	t.Run("FitsUnchanged", func(t *testing.T) {
		points := []Point{{T: 1, V: 1}, {T: 2, V: 2}}
		got := Downsample(points, 10)
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})

	t.Run("StrideFallbackForEqualTimestamps", func(t *testing.T) {
		points := make([]Point, 100)
		for i := range points {
			points[i] = Point{T: 5, V: float64(i)}
		}
		got := Downsample(points, 10)
		if len(got) > 10 {
			t.Errorf("len = %d, want <= 10", len(got))
		}
	})
}
