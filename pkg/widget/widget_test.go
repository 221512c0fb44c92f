package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/timeseries"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	t.Run("AllKindsRegistered", func(t *testing.T) {
		kinds := r.Kinds()
		assert.ElementsMatch(t, []string{
			KindReadout, KindLED, KindGauge, KindNumericInput,
			KindEnumSelector, KindMotor, KindPlot,
		}, kinds)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, err := r.New(Definition{ID: "w1", Type: "dial", PV: "TEST:X"}, nil)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := r.New(Definition{Type: KindReadout, PV: "TEST:X"}, nil)
		assert.ErrorIs(t, err, ErrMissingID)
	})

	t.Run("MissingPV", func(t *testing.T) {
		_, err := r.New(Definition{ID: "w1", Type: KindReadout}, nil)
		assert.ErrorIs(t, err, ErrMissingPV)
	})

	t.Run("ConstructsEachKind", func(t *testing.T) {
		for _, kind := range r.Kinds() {
			w, err := r.New(Definition{ID: "w-" + kind, Type: kind, PV: "TEST:X"}, nil)
			require.NoError(t, err, kind)
			assert.Equal(t, kind, w.Kind())
			assert.Equal(t, "w-"+kind, w.ID())
		}
	})
}

func TestReadout(t *testing.T) {
	t.Run("PlaceholderBeforeFirstUpdate", func(t *testing.T) {
		w, err := NewReadout(Definition{ID: "r1", Type: KindReadout, PV: "BPM:X"}, nil)
		require.NoError(t, err)
		assert.Contains(t, w.Render(), Placeholder)
	})

	t.Run("Precision", func(t *testing.T) {
		w, err := NewReadout(Definition{
			ID: "r1", Type: KindReadout, PV: "BPM:X",
			Config: Config{Precision: intPtr(2), Units: "mm"},
		}, nil)
		require.NoError(t, err)

		w.Update(pv.Update{Name: "BPM:X", Value: 1.23456, Timestamp: 100})
		assert.Equal(t, "BPM:X: 1.23 mm", w.Render())
	})

	t.Run("SeveritySuffix", func(t *testing.T) {
		w, err := NewReadout(Definition{ID: "r1", Type: KindReadout, PV: "BPM:X"}, nil)
		require.NoError(t, err)

		w.Update(pv.Update{Name: "BPM:X", Value: 5.0, Timestamp: 100, Severity: pv.SeverityMajor})
		assert.Contains(t, w.Render(), "[MAJOR]")
	})
}

func TestLED(t *testing.T) {
	w, err := NewLED(Definition{ID: "l1", Type: KindLED, PV: "SHUTTER:OPEN"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "SHUTTER:OPEN: --", w.Render())

	w.Update(pv.Update{Name: "SHUTTER:OPEN", Value: 1, Timestamp: 100})
	assert.Equal(t, "SHUTTER:OPEN: ON", w.Render())

	w.Update(pv.Update{Name: "SHUTTER:OPEN", Value: 0, Timestamp: 101})
	assert.Equal(t, "SHUTTER:OPEN: off", w.Render())
}

func TestGauge(t *testing.T) {
	def := Definition{
		ID: "g1", Type: KindGauge, PV: "RING:CURRENT",
		Config: Config{MinValue: floatPtr(0), MaxValue: floatPtr(500)},
	}
	w, err := NewGauge(def, nil)
	require.NoError(t, err)
	g := w.(*Gauge)

	_, ok := g.Fraction()
	assert.False(t, ok)

	w.Update(pv.Update{Name: "RING:CURRENT", Value: 250.0, Timestamp: 100})
	f, ok := g.Fraction()
	require.True(t, ok)
	assert.InDelta(t, 0.5, f, 1e-9)

	w.Update(pv.Update{Name: "RING:CURRENT", Value: 900.0, Timestamp: 101})
	f, _ = g.Fraction()
	assert.Equal(t, 1.0, f)
}

func TestNumericInput(t *testing.T) {
	var gotPV string
	var gotValue any
	put := func(pvName string, value any) error {
		gotPV = pvName
		gotValue = value
		return nil
	}

	def := Definition{
		ID: "n1", Type: KindNumericInput, PV: "SLIT:GAP",
		Config: Config{Min: floatPtr(0), Max: floatPtr(10)},
	}
	w, err := NewNumericInput(def, put)
	require.NoError(t, err)
	n := w.(*NumericInput)

	t.Run("PutClampsToRange", func(t *testing.T) {
		require.NoError(t, n.Put(15))
		assert.Equal(t, "SLIT:GAP", gotPV)
		assert.Equal(t, 10.0, gotValue)
	})

	t.Run("NilPutFuncDropsWrite", func(t *testing.T) {
		w2, err := NewNumericInput(def, nil)
		require.NoError(t, err)
		assert.NoError(t, w2.(*NumericInput).Put(5))
	})
}

func TestEnumSelector(t *testing.T) {
	var gotValue any
	put := func(pvName string, value any) error {
		gotValue = value
		return nil
	}

	def := Definition{
		ID: "e1", Type: KindEnumSelector, PV: "FILTER:POS",
		Config: Config{EnumLabels: []string{"Out", "Al", "Cu"}},
	}
	w, err := NewEnumSelector(def, put)
	require.NoError(t, err)
	e := w.(*EnumSelector)

	require.NoError(t, e.Select(2))
	assert.Equal(t, 2, gotValue)

	assert.Error(t, e.Select(3))
	assert.Error(t, e.Select(-1))

	w.Update(pv.Update{Name: "FILTER:POS", Value: 1, Timestamp: 100})
	idx, label, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "Al", label)
}

func TestMotor(t *testing.T) {
	var gotPV string
	var gotValue any
	put := func(pvName string, value any) error {
		gotPV = pvName
		gotValue = value
		return nil
	}

	w, err := NewMotor(Definition{ID: "m1", Type: KindMotor, PV: "MOTOR1"}, put)
	require.NoError(t, err)
	m := w.(*Motor)

	t.Run("SubscribesAllAxisPVs", func(t *testing.T) {
		assert.Equal(t, []string{"MOTOR1:RBV", "MOTOR1:VAL", "MOTOR1:MOVN"}, m.SubscribePVs())
	})

	t.Run("RoutesBySuffix", func(t *testing.T) {
		m.Update(pv.Update{Name: "MOTOR1:RBV", Value: 12.5, Timestamp: 100})
		m.Update(pv.Update{Name: "MOTOR1:VAL", Value: 13.0, Timestamp: 100})
		m.Update(pv.Update{Name: "MOTOR1:MOVN", Value: 1, Timestamp: 100})

		rbv, ok := m.Readback()
		require.True(t, ok)
		assert.Equal(t, 12.5, rbv)

		sp, ok := m.Setpoint()
		require.True(t, ok)
		assert.Equal(t, 13.0, sp)

		assert.True(t, m.Moving())
	})

	t.Run("IgnoresForeignPV", func(t *testing.T) {
		m.Update(pv.Update{Name: "MOTOR2:RBV", Value: 99.0, Timestamp: 101})
		rbv, _ := m.Readback()
		assert.Equal(t, 12.5, rbv)
	})

	t.Run("MoveWritesSetpoint", func(t *testing.T) {
		require.NoError(t, m.Move(20.0))
		assert.Equal(t, "MOTOR1:VAL", gotPV)
		assert.Equal(t, 20.0, gotValue)
	})
}

func TestPlot(t *testing.T) {
	def := Definition{
		ID: "p1", Type: KindPlot, PV: "BPM:X",
		Config: Config{MaxPoints: 100, TimeWindow: 3600},
	}

	t.Run("AppendsLivePoints", func(t *testing.T) {
		w, err := NewPlot(def, nil)
		require.NoError(t, err)
		p := w.(*Plot)

		p.Update(pv.Update{Name: "BPM:X", Value: 1.0, Timestamp: 10})
		p.Update(pv.Update{Name: "BPM:X", Value: 2.0, Timestamp: 11})

		points := p.Snapshot()
		require.Len(t, points, 2)
		assert.Equal(t, 10000.0, points[0].T)
		assert.Equal(t, 2.0, points[1].V)
	})

	t.Run("MergesBackfillWithLivePoints", func(t *testing.T) {
		w, err := NewPlot(def, nil)
		require.NoError(t, err)
		p := w.(*Plot)

		// Live points arrive while the fetch is in flight.
		p.Update(pv.Update{Name: "BPM:X", Value: 5.0, Timestamp: 100})
		p.Update(pv.Update{Name: "BPM:X", Value: 6.0, Timestamp: 101})

		history := []timeseries.Point{
			{T: 90000, V: 1.0},
			{T: 95000, V: 2.0},
			{T: 100500, V: 3.0}, // overlaps the live range, after the seam
		}
		require.True(t, p.ApplyHistory("BPM:X", history))

		points := p.Snapshot()
		require.Len(t, points, 4)
		assert.Equal(t, 90000.0, points[0].T)
		assert.Equal(t, 95000.0, points[1].T)
		// The live point at 100000 falls before the history seam and is dropped.
		assert.Equal(t, 100500.0, points[2].T)
		assert.Equal(t, 101000.0, points[3].T)
	})

	t.Run("StaleFetchDiscarded", func(t *testing.T) {
		w, err := NewPlot(def, nil)
		require.NoError(t, err)
		p := w.(*Plot)

		p.Update(pv.Update{Name: "BPM:X", Value: 5.0, Timestamp: 100})
		p.SetPV("BPM:Y")

		assert.False(t, p.ApplyHistory("BPM:X", []timeseries.Point{{T: 1000, V: 1.0}}))
		assert.Empty(t, p.Snapshot())
	})

	t.Run("PVChangeClearsSeries", func(t *testing.T) {
		w, err := NewPlot(def, nil)
		require.NoError(t, err)
		p := w.(*Plot)

		p.Update(pv.Update{Name: "BPM:X", Value: 5.0, Timestamp: 100})
		require.NotEmpty(t, p.Snapshot())

		p.SetPV("BPM:Y")
		assert.Empty(t, p.Snapshot())
		assert.Equal(t, []string{"BPM:Y"}, p.SubscribePVs())
	})
}
