package timeseries

import (
	"testing"
	"time"
)

func TestRecorder(t *testing.T) {
	t.Run("RecordAndQuery", func(t *testing.T) {
		r := NewRecorder(0)
		base := time.Now().Add(-time.Minute)
		for i := 0; i < 60; i++ {
			ts := base.Add(time.Duration(i) * time.Second)
			r.Record("SIM:TEMP:1", float64(20+i), float64(ts.UnixNano())/1e9)
		}

		got := r.History("SIM:TEMP:1", 30*time.Second, 1000, time.Now())
		if len(got) == 0 {
			t.Fatal("expected points inside the window")
		}
		if len(got) > 31 {
			t.Errorf("len = %d, want <= 31 within a 30s window", len(got))
		}
	})

	t.Run("DownsamplesToMaxPoints", func(t *testing.T) {
		r := NewRecorder(0)
		now := time.Now()
		base := now.Add(-time.Minute)
		for i := 0; i < 600; i++ {
			ts := base.Add(time.Duration(i*100) * time.Millisecond)
			r.Record("SIM:DET:RATE", float64(i), float64(ts.UnixNano())/1e9)
		}

		got := r.History("SIM:DET:RATE", time.Hour, 50, now)
		if len(got) > 50 {
			t.Errorf("len = %d, want <= 50", len(got))
		}
	})

	t.Run("UnknownPV", func(t *testing.T) {
		r := NewRecorder(0)
		if got := r.History("NOPE", time.Hour, 10, time.Now()); got != nil {
			t.Errorf("History for unknown PV = %v, want nil", got)
		}
	})

	t.Run("NonNumericDropped", func(t *testing.T) {
		r := NewRecorder(0)
		r.Record("SIM:TEMP:1", "bogus", 1.0)
		if pvs := r.PVs(); len(pvs) != 1 {
			// The buffer is created but stays empty.
			t.Fatalf("PVs = %v", pvs)
		}
		if got := r.History("SIM:TEMP:1", time.Hour, 10, time.Unix(1, 0)); len(got) != 0 {
			t.Errorf("History = %v, want empty", got)
		}
	})

	t.Run("RawCapCompacts", func(t *testing.T) {
		r := NewRecorder(100)
		now := time.Now()
		for i := 0; i < 300; i++ {
			ts := now.Add(time.Duration(i) * time.Millisecond)
			r.Record("SIM:FLOW:1", float64(i), float64(ts.UnixNano())/1e9)
		}

		h := r.getOrCreate("SIM:FLOW:1")
		h.mu.Lock()
		n := len(h.points)
		h.mu.Unlock()
		if n > 100 {
			t.Errorf("raw buffer = %d points, want <= 100", n)
		}
	})
}
