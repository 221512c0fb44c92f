package instrument

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/pv"
)

// Motor simulation constants.
const (
	// DefaultMotorSpeed is the travel speed in units per second.
	DefaultMotorSpeed = 5.0

	// motorStepInterval is the readback update period during a move.
	motorStepInterval = 50 * time.Millisecond

	// motorSnapDistance is the remaining distance below which the
	// readback snaps to the target and the move completes.
	motorSnapDistance = 0.01
)

// simChannel holds live state for one simulated channel.
type simChannel struct {
	cfg      ChannelConfig
	value    float64
	ts       float64 // unix seconds
	severity pv.Severity
}

// activeMove tracks one in-flight motor move.
type activeMove struct {
	cancel chan struct{}
	done   chan struct{}
}

// Sim is the simulated beamline provider. It ticks its channel table
// on a jittered interval and runs one goroutine per in-flight motor
// move, mirroring how a real motor record behaves.
type Sim struct {
	cfg SimConfig
	log *slog.Logger

	mu       sync.Mutex
	channels map[string]*simChannel
	motorCfg map[string]MotorConfig // base name -> config
	subs     map[string]map[string]Callback
	taps     []Callback
	running  bool

	// movesMu serializes move starts so an interrupted move has fully
	// stopped before its replacement begins.
	movesMu sync.Mutex
	moves   map[string]*activeMove

	rng  *rand.Rand
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSim builds a simulated provider from the given channel table.
// Call Start to begin ticking.
func NewSim(cfg SimConfig, logger *slog.Logger) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sim{
		cfg:      cfg,
		log:      logger.With("component", "sim"),
		channels: make(map[string]*simChannel),
		motorCfg: make(map[string]MotorConfig),
		subs:     make(map[string]map[string]Callback),
		moves:    make(map[string]*activeMove),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:     make(chan struct{}),
	}

	now := nowSeconds()
	for _, ch := range cfg.Channels {
		s.channels[ch.Name] = &simChannel{cfg: ch, value: ch.Initial, ts: now}
	}
	for _, m := range cfg.Motors {
		if m.Speed <= 0 {
			m.Speed = DefaultMotorSpeed
		}
		s.motorCfg[m.Base] = m
		// Motor channels are static from the tick loop's point of view;
		// moves and puts drive them.
		for _, spec := range []struct {
			suffix string
			typ    string
		}{
			{pv.SuffixReadback, TypeFloat},
			{pv.SuffixSetpoint, TypeFloat},
			{pv.SuffixMoving, TypeInt},
		} {
			name := m.Base + spec.suffix
			initial := m.Initial
			if spec.suffix == pv.SuffixMoving {
				initial = 0
			}
			s.channels[name] = &simChannel{
				cfg: ChannelConfig{
					Name: name, Initial: initial, Type: spec.typ,
					Low: floatp(m.Low), High: floatp(m.High), Static: true,
				},
				value: initial,
				ts:    now,
			}
		}
	}
	return s, nil
}

// Start launches the tick loop.
func (s *Sim) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("simulated provider starting",
		"channels", len(s.channels), "motors", len(s.motorCfg))
	s.wg.Add(1)
	go s.tickLoop()
}

// Stop halts the tick loop and any in-flight moves.
func (s *Sim) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	s.log.Info("simulated provider stopped")
}

// Subscribe registers a callback and primes it with the current value.
func (s *Sim) Subscribe(pvName, subscriberID string, cb Callback) {
	s.mu.Lock()
	m, ok := s.subs[pvName]
	if !ok {
		m = make(map[string]Callback)
		s.subs[pvName] = m
	}
	m[subscriberID] = cb

	var prime *pv.Update
	if ch, ok := s.channels[pvName]; ok {
		u := ch.update()
		prime = &u
	}
	s.mu.Unlock()

	if prime != nil {
		cb(*prime)
	}
}

// Unsubscribe removes the (subscriber, pv) registration.
func (s *Sim) Unsubscribe(pvName, subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.subs[pvName]; ok {
		delete(m, subscriberID)
		if len(m) == 0 {
			delete(s.subs, pvName)
		}
	}
}

// Tap registers an observer that sees every update on every channel.
// Used to feed the history recorder.
func (s *Sim) Tap(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taps = append(s.taps, cb)
}

// Put writes a value to a channel and fires its subscribers. Writing a
// motor's setpoint starts a move toward it.
func (s *Sim) Put(pvName string, value any) error {
	v, ok := pv.ToFloat(value)
	if !ok {
		return fmt.Errorf("non-numeric put value %v for %s", value, pvName)
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("%w: put %s", ErrNotRunning, pvName)
	}
	ch, found := s.channels[pvName]
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownPV, pvName)
	}
	if ch.cfg.Type == TypeInt {
		v = math.Trunc(v)
	}
	ch.value = v
	ch.ts = nowSeconds()
	ch.severity = severityFor(ch.cfg, v)
	s.mu.Unlock()

	s.fire(pvName)

	if base, isMotor := s.motorSetpoint(pvName); isMotor {
		s.startMove(base, v)
	}
	return nil
}

// Current returns the cached update for a channel.
func (s *Sim) Current(pvName string) (pv.Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[pvName]
	if !ok {
		return pv.Update{}, false
	}
	return ch.update(), true
}

// PVNames returns all channel names, including derived motor channels.
func (s *Sim) PVNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.channels))
	for name := range s.channels {
		out = append(out, name)
	}
	return out
}

func (s *Sim) tickLoop() {
	defer s.wg.Done()

	for {
		// Vary the interval around the configured mean, between half
		// and one-and-a-half of it.
		base := float64(s.cfg.TickInterval())
		interval := time.Duration(base * (0.5 + s.rng.Float64()))

		t := time.NewTimer(interval)
		select {
		case <-s.stop:
			t.Stop()
			return
		case <-t.C:
		}
		s.tickAll()
	}
}

func (s *Sim) tickAll() {
	now := nowSeconds()

	s.mu.Lock()
	var changed []string
	for name, ch := range s.channels {
		if ch.cfg.Static {
			continue
		}
		switch ch.cfg.Type {
		case TypeInt:
			if ch.cfg.Noise > 0 {
				lo, hi := 0.0, 1.0
				if ch.cfg.Low != nil {
					lo = *ch.cfg.Low
				}
				if ch.cfg.High != nil {
					hi = *ch.cfg.High
				}
				ch.value = math.Trunc(lo + s.rng.Float64()*(hi-lo+1))
				if ch.value > hi {
					ch.value = hi
				}
			}
		default:
			ch.value += s.rng.NormFloat64()*ch.cfg.Noise + ch.cfg.Drift
			if ch.cfg.Low != nil && ch.value < *ch.cfg.Low {
				ch.value = *ch.cfg.Low
			}
			if ch.cfg.High != nil && ch.value > *ch.cfg.High {
				ch.value = *ch.cfg.High
			}
			ch.value = roundTo(ch.value, 6)
		}
		ch.ts = now
		ch.severity = severityFor(ch.cfg, ch.value)
		changed = append(changed, name)
	}
	s.mu.Unlock()

	for _, name := range changed {
		s.fire(name)
	}
}

// fire dispatches a channel's current update to its subscribers and
// all taps. Callbacks run outside the state lock.
func (s *Sim) fire(pvName string) {
	s.mu.Lock()
	ch, ok := s.channels[pvName]
	if !ok {
		s.mu.Unlock()
		return
	}
	u := ch.update()
	cbs := make([]Callback, 0, len(s.subs[pvName])+len(s.taps))
	cbs = append(cbs, s.taps...)
	for _, cb := range s.subs[pvName] {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(u)
	}
}

// motorSetpoint reports whether pvName is a known motor's setpoint.
func (s *Sim) motorSetpoint(pvName string) (base string, ok bool) {
	if !strings.HasSuffix(pvName, pv.SuffixSetpoint) {
		return "", false
	}
	base = strings.TrimSuffix(pvName, pv.SuffixSetpoint)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok = s.motorCfg[base]
	return base, ok
}

// startMove begins moving a motor's readback toward target, canceling
// any move already in flight for the same axis.
func (s *Sim) startMove(base string, target float64) {
	s.movesMu.Lock()
	defer s.movesMu.Unlock()

	if prev, ok := s.moves[base]; ok {
		close(prev.cancel)
		<-prev.done
	}

	// wg.Add must not race Stop's wg.Wait: the running check and the
	// Add happen under the same lock Stop uses to clear running.
	s.mu.Lock()
	cfg := s.motorCfg[base]
	if !s.running {
		s.mu.Unlock()
		delete(s.moves, base)
		return
	}
	mv := &activeMove{cancel: make(chan struct{}), done: make(chan struct{})}
	s.moves[base] = mv
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runMove(base, target, cfg, mv)
}

func (s *Sim) runMove(base string, target float64, cfg MotorConfig, mv *activeMove) {
	defer s.wg.Done()
	defer close(mv.done)

	rbvName := base + pv.SuffixReadback
	movnName := base + pv.SuffixMoving

	s.setChannel(movnName, 1)
	defer s.setChannel(movnName, 0)

	step := cfg.Speed * motorStepInterval.Seconds()
	ticker := time.NewTicker(motorStepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-mv.cancel:
			// Interrupted; the readback stays wherever it got to.
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		rbv := s.channels[rbvName]
		distance := target - rbv.value
		if math.Abs(distance) < motorSnapDistance {
			rbv.value = target
			rbv.ts = nowSeconds()
			s.mu.Unlock()
			s.fire(rbvName)
			return
		}
		d := step
		if math.Abs(distance) < d {
			d = math.Abs(distance)
		}
		rbv.value = roundTo(rbv.value+math.Copysign(d, distance), 4)
		rbv.ts = nowSeconds()
		s.mu.Unlock()
		s.fire(rbvName)
	}
}

// setChannel overwrites a channel value and fires its subscribers.
func (s *Sim) setChannel(pvName string, value float64) {
	s.mu.Lock()
	ch, ok := s.channels[pvName]
	if ok {
		ch.value = value
		ch.ts = nowSeconds()
	}
	s.mu.Unlock()
	if ok {
		s.fire(pvName)
	}
}

func (c *simChannel) update() pv.Update {
	var value any = c.value
	if c.cfg.Type == TypeInt {
		value = int(c.value)
	}
	return pv.Update{
		Name:      c.cfg.Name,
		Value:     value,
		Timestamp: c.ts,
		Severity:  c.severity,
	}
}

// severityFor derives alarm severity from the channel's thresholds.
func severityFor(cfg ChannelConfig, v float64) pv.Severity {
	if cfg.AlarmLow != nil && v <= *cfg.AlarmLow {
		return pv.SeverityMajor
	}
	if cfg.AlarmHigh != nil && v >= *cfg.AlarmHigh {
		return pv.SeverityMajor
	}
	if cfg.WarnLow != nil && v <= *cfg.WarnLow {
		return pv.SeverityMinor
	}
	if cfg.WarnHigh != nil && v >= *cfg.WarnHigh {
		return pv.SeverityMinor
	}
	return pv.SeverityNone
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
