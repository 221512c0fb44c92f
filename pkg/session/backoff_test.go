package session

import (
	"testing"
	"time"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff()

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second, // stays at cap
		30 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
	if b.Attempts() != len(want) {
		t.Errorf("Attempts() = %d, want %d", b.Attempts(), len(want))
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff()
	b.Next()
	b.Next()
	b.Next()

	b.Reset()
	if got := b.Next(); got != 1*time.Second {
		t.Errorf("Next() after Reset = %v, want 1s", got)
	}
	if b.Attempts() != 1 {
		t.Errorf("Attempts() after Reset+Next = %d, want 1", b.Attempts())
	}
}

func TestBackoffMonotone(t *testing.T) {
	b := NewBackoff()
	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		d := b.Next()
		if d < prev {
			t.Fatalf("Next() #%d = %v decreased from %v", i, d, prev)
		}
		if d > MaxBackoff {
			t.Fatalf("Next() #%d = %v exceeds cap %v", i, d, MaxBackoff)
		}
		prev = d
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    1 * time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     0.25,
	})
	for i := 0; i < 20; i++ {
		base := b.Current()
		d := b.Next()
		if d < base || d > base+base/4 {
			t.Errorf("jittered delay %v outside [%v, %v]", d, base, base+base/4)
		}
	}
}

func TestBackoffConfigDefaults(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Multiplier: 0.5})
	if b.Current() != InitialBackoff {
		t.Errorf("Current() = %v, want %v", b.Current(), InitialBackoff)
	}
	b.Next()
	if b.Current() != 2*time.Second {
		t.Errorf("multiplier not defaulted, Current() = %v", b.Current())
	}
}
