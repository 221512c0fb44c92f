package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/deanSLAC/eiwyg/pkg/caplog"
	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/registry"
	"github.com/deanSLAC/eiwyg/pkg/wire"
)

// Session errors.
var (
	ErrClosed     = errors.New("session closed")
	ErrNotOpen    = errors.New("session not open")
	ErrAlreadyRun = errors.New("session already started")
)

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 10 * time.Second

// Config holds session settings. URL is required; everything else has
// a usable default.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://host:8080/ws".
	URL string

	// Dialer used for connection attempts. Defaults to
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// Backoff configures the reconnect delay sequence.
	Backoff BackoffConfig

	// Logger for operational logging. Defaults to slog.Default.
	Logger *slog.Logger

	// Capture receives protocol capture events. Defaults to a no-op.
	Capture caplog.Logger

	// OnUpdate is called for every decoded pv_update. Called from the
	// read loop goroutine; it must not block for long.
	OnUpdate func(u pv.Update)

	// OnStateChange is called on every state transition.
	OnStateChange func(oldState, newState State)
}

// Session maintains one websocket connection to a PV stream server,
// reconnecting with exponential backoff until closed. All subscription
// state lives in the registry; after every (re)connect the session
// replays the registry's full union so the server starts from scratch.
type Session struct {
	cfg      Config
	registry *registry.Registry
	backoff  *Backoff
	log      *slog.Logger
	capture  caplog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	connID  string
	started bool

	// writeMu serializes frame writes; the websocket allows one
	// concurrent writer.
	writeMu sync.Mutex
}

// New creates a session over the given registry. The session does not
// connect until Start is called.
func New(cfg Config, reg *registry.Registry) *Session {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	var capture caplog.Logger = caplog.NoopLogger{}
	if cfg.Capture != nil {
		capture = cfg.Capture
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:      cfg,
		registry: reg,
		backoff:  NewBackoffWithConfig(cfg.Backoff),
		log:      cfg.Logger.With("component", "session", "url", cfg.URL),
		capture:  capture,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateConnecting,
	}
}

// Start launches the connection loop. It returns immediately; the
// session connects and reconnects in the background until Close.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	return nil
}

// Close tears the session down. Terminal; the session cannot be
// restarted. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	oldState := s.state
	s.state = StateClosed
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.notifyStateChange(oldState, StateClosed, "close requested")

	s.cancel()
	if conn != nil {
		conn.Close()
	}
	s.wg.Wait()
	return nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConnectionID returns the UUID of the current connection, or "" when
// not open.
func (s *Session) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

// Register adds a widget's PV interest and, when open, sends the
// incremental subscribe/unsubscribe this changes. While not open the
// registry mutation alone suffices; the next resync replays everything.
func (s *Session) Register(widgetID string, pvNames []string) {
	s.registry.Register(widgetID, pvNames)
	s.flushDiff()
}

// Unregister removes a widget's PV interest and, when open, sends the
// resulting unsubscribe for names nobody wants anymore.
func (s *Session) Unregister(widgetID string) {
	s.registry.Unregister(widgetID)
	s.flushDiff()
}

// Put writes a value to a PV. Writes are dropped with ErrNotOpen in any
// state but open; they are never queued.
func (s *Session) Put(pvName string, value any) error {
	s.mu.Lock()
	conn := s.conn
	connID := s.connID
	open := s.state == StateOpen
	s.mu.Unlock()

	if !open || conn == nil {
		s.log.Debug("dropping put while not open", "pv", pvName)
		return ErrNotOpen
	}

	data, err := wire.EncodePut(pvName, value)
	if err != nil {
		return err
	}
	if err := s.writeFrame(conn, connID, data); err != nil {
		return err
	}
	s.capture.Log(caplog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    caplog.DirectionOut,
		Layer:        caplog.LayerWire,
		Message:      &caplog.MessageEvent{Type: wire.TypePut, PV: pvName},
	})
	return nil
}

func (s *Session) run() {
	defer s.wg.Done()

	for {
		if s.ctx.Err() != nil {
			return
		}

		conn, err := s.dial()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			delay := s.backoff.Next()
			s.log.Warn("connection attempt failed",
				"error", err,
				"attempt", s.backoff.Attempts(),
				"retry_in", delay)
			if !s.sleep(delay) {
				return
			}
			continue
		}

		if !s.opened(conn) {
			return
		}
		s.readLoop(conn)

		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		oldState := s.state
		s.state = StateReconnecting
		s.conn = nil
		s.connID = ""
		s.mu.Unlock()
		conn.Close()

		s.notifyStateChange(oldState, StateReconnecting, "connection lost")

		delay := s.backoff.Next()
		s.log.Warn("connection lost, reconnecting", "retry_in", delay)
		if !s.sleep(delay) {
			return
		}
	}
}

func (s *Session) dial() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.DialTimeout)
	defer cancel()

	conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, nil)
	return conn, err
}

// opened transitions to open and replays the full subscription set.
// Returns false if Close won the race against the dial, in which case
// the fresh connection is closed and the state stays CLOSED.
func (s *Session) opened(conn *websocket.Conn) bool {
	connID := uuid.NewString()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		conn.Close()
		return false
	}
	oldState := s.state
	s.state = StateOpen
	s.conn = conn
	s.connID = connID
	s.mu.Unlock()

	s.backoff.Reset()
	s.notifyStateChange(oldState, StateOpen, "connected")
	s.log.Info("connected", "connection_id", connID)

	diff := s.registry.Resync()
	if len(diff.ToSubscribe) > 0 {
		if err := s.sendSubscribe(conn, connID, diff.ToSubscribe); err != nil {
			s.log.Warn("resubscribe failed", "error", err)
		}
	}
	return true
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.state == StateClosed
			connID := s.connID
			s.mu.Unlock()
			if !closed {
				s.capture.Log(caplog.Event{
					Timestamp:    time.Now(),
					ConnectionID: connID,
					Direction:    caplog.DirectionNone,
					Layer:        caplog.LayerTransport,
					Error:        &caplog.ErrorEvent{Message: err.Error(), Context: "read"},
				})
			}
			return
		}
		s.handleFrame(data)
	}
}

// handleFrame decodes one inbound frame. Malformed frames are logged
// and dropped; they never take the session down.
func (s *Session) handleFrame(data []byte) {
	s.mu.Lock()
	connID := s.connID
	s.mu.Unlock()

	s.capture.Log(caplog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    caplog.DirectionIn,
		Layer:        caplog.LayerTransport,
		Frame:        caplog.NewFrameEvent(data),
	})

	msgType, err := wire.PeekType(data)
	if err != nil {
		s.dropFrame(connID, "unparseable frame", err)
		return
	}

	switch msgType {
	case wire.TypePVUpdate:
		msg, err := wire.DecodeUpdate(data)
		if err != nil {
			s.dropFrame(connID, "invalid pv_update", err)
			return
		}
		s.capture.Log(caplog.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    caplog.DirectionIn,
			Layer:        caplog.LayerWire,
			Message: &caplog.MessageEvent{
				Type:     wire.TypePVUpdate,
				PV:       msg.PV,
				Severity: msg.Severity,
			},
		})
		if s.cfg.OnUpdate != nil {
			s.cfg.OnUpdate(msg.Update())
		}
	default:
		s.dropFrame(connID, "unknown message type "+msgType, nil)
	}
}

func (s *Session) dropFrame(connID, reason string, err error) {
	s.log.Debug("dropping frame", "reason", reason, "error", err)
	ev := caplog.ErrorEvent{Message: reason, Context: "decode"}
	if err != nil {
		ev.Message = err.Error()
		ev.Context = reason
	}
	s.capture.Log(caplog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    caplog.DirectionIn,
		Layer:        caplog.LayerWire,
		Error:        &ev,
	})
}

// flushDiff sends the incremental subscription change, if open.
func (s *Session) flushDiff() {
	s.mu.Lock()
	conn := s.conn
	connID := s.connID
	open := s.state == StateOpen
	s.mu.Unlock()

	if !open || conn == nil {
		return
	}

	diff := s.registry.Diff()
	if diff.Empty() {
		return
	}
	if len(diff.ToSubscribe) > 0 {
		if err := s.sendSubscribe(conn, connID, diff.ToSubscribe); err != nil {
			s.log.Warn("subscribe failed", "error", err)
			return
		}
	}
	if len(diff.ToUnsubscribe) > 0 {
		data, err := wire.EncodeUnsubscribe(diff.ToUnsubscribe)
		if err != nil {
			return
		}
		if err := s.writeFrame(conn, connID, data); err != nil {
			s.log.Warn("unsubscribe failed", "error", err)
			return
		}
		s.capture.Log(caplog.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    caplog.DirectionOut,
			Layer:        caplog.LayerWire,
			Message:      &caplog.MessageEvent{Type: wire.TypeUnsubscribe, PVCount: len(diff.ToUnsubscribe)},
		})
	}
}

func (s *Session) sendSubscribe(conn *websocket.Conn, connID string, pvs []string) error {
	data, err := wire.EncodeSubscribe(pvs)
	if err != nil {
		return err
	}
	if err := s.writeFrame(conn, connID, data); err != nil {
		return err
	}
	s.capture.Log(caplog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    caplog.DirectionOut,
		Layer:        caplog.LayerWire,
		Message:      &caplog.MessageEvent{Type: wire.TypeSubscribe, PVCount: len(pvs)},
	})
	return nil
}

func (s *Session) writeFrame(conn *websocket.Conn, connID string, data []byte) error {
	s.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()

	if err == nil {
		s.capture.Log(caplog.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    caplog.DirectionOut,
			Layer:        caplog.LayerTransport,
			Frame:        caplog.NewFrameEvent(data),
		})
	}
	return err
}

func (s *Session) notifyStateChange(oldState, newState State, reason string) {
	s.capture.Log(caplog.Event{
		Timestamp: time.Now(),
		Direction: caplog.DirectionNone,
		Layer:     caplog.LayerSession,
		StateChange: &caplog.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(oldState, newState)
	}
}

// sleep waits for d or cancellation. Returns false when canceled.
func (s *Session) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
