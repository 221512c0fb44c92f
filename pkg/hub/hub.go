package hub

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/deanSLAC/eiwyg/pkg/caplog"
	"github.com/deanSLAC/eiwyg/pkg/instrument"
	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/timeseries"
	"github.com/deanSLAC/eiwyg/pkg/wire"
)

// Options configures a Hub. All fields are optional.
type Options struct {
	// Logger for operational logging. Defaults to slog.Default.
	Logger *slog.Logger

	// Capture receives protocol capture events. Defaults to a no-op.
	Capture caplog.Logger

	// Recorder backs the history endpoint. Without one the endpoint
	// answers 404 for every PV.
	Recorder *timeseries.Recorder

	// CheckOrigin overrides the upgrader's origin check. The default
	// accepts any origin; dashboards are served from arbitrary hosts.
	CheckOrigin func(r *http.Request) bool
}

// Hub fans instrument updates out to websocket clients.
type Hub struct {
	provider instrument.Provider
	recorder *timeseries.Recorder
	log      *slog.Logger
	capture  caplog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

// New creates a hub over the given provider.
func New(provider instrument.Provider, opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var capture caplog.Logger = caplog.NoopLogger{}
	if opts.Capture != nil {
		capture = opts.Capture
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		provider: provider,
		recorder: opts.Recorder,
		log:      logger.With("component", "hub"),
		capture:  capture,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		clients:  make(map[string]*client),
	}
}

// Routes registers the hub's endpoints on a mux.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc(historyPathPrefix, h.HandleHistory)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every client connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// HandleWS upgrades the request and serves the client until it
// disconnects. Each inbound frame is a subscribe, unsubscribe or put
// message; anything else is logged and dropped.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		remote: r.RemoteAddr,
		conn:   conn,
		hub:    h,
		subs:   make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Info("client connected", "client_id", c.id, "remote", c.remote)
	defer h.dropClient(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.capture.Log(caplog.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.id,
			Direction:    caplog.DirectionIn,
			Layer:        caplog.LayerTransport,
			RemoteAddr:   c.remote,
			Frame:        caplog.NewFrameEvent(data),
		})
		h.handleMessage(c, data)
	}
}

func (h *Hub) handleMessage(c *client, data []byte) {
	msgType, err := wire.PeekType(data)
	if err != nil {
		h.log.Debug("dropping unparseable frame", "client_id", c.id, "error", err)
		return
	}

	switch msgType {
	case wire.TypeSubscribe:
		msg, err := wire.DecodeSubscribe(data)
		if err != nil {
			h.log.Debug("dropping invalid subscribe", "client_id", c.id, "error", err)
			return
		}
		for _, name := range msg.PVs {
			c.subscribe(name)
		}

	case wire.TypeUnsubscribe:
		msg, err := wire.DecodeUnsubscribe(data)
		if err != nil {
			h.log.Debug("dropping invalid unsubscribe", "client_id", c.id, "error", err)
			return
		}
		for _, name := range msg.PVs {
			c.unsubscribe(name)
		}

	case wire.TypePut:
		msg, err := wire.DecodePut(data)
		if err != nil {
			h.log.Debug("dropping invalid put", "client_id", c.id, "error", err)
			return
		}
		if err := h.provider.Put(msg.PV, msg.Value); err != nil {
			h.log.Warn("put failed", "client_id", c.id, "pv", msg.PV, "error", err)
		}

	default:
		h.log.Debug("dropping unknown message type",
			"client_id", c.id, "type", msgType)
	}
}

// dropClient releases every subscription the client held and forgets it.
func (h *Hub) dropClient(c *client) {
	c.mu.Lock()
	c.closed = true
	names := make([]string, 0, len(c.subs))
	for name := range c.subs {
		names = append(names, name)
	}
	c.subs = nil
	c.mu.Unlock()

	for _, name := range names {
		h.provider.Unsubscribe(name, c.id)
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.conn.Close()
	h.log.Info("client disconnected", "client_id", c.id, "subscriptions", len(names))
}

// client is one connected websocket with its subscription set.
type client struct {
	id     string
	remote string
	conn   *websocket.Conn
	hub    *Hub

	// writeMu serializes frame writes; provider callbacks arrive on
	// multiple goroutines.
	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]struct{}
	closed bool
}

// subscribe registers interest in one PV. The provider primes the
// callback with the current value immediately, so a fresh subscriber
// renders real data before the next change.
func (c *client) subscribe(pvName string) {
	if pvName == "" {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, dup := c.subs[pvName]; dup {
		c.mu.Unlock()
		return
	}
	c.subs[pvName] = struct{}{}
	c.mu.Unlock()

	c.hub.provider.Subscribe(pvName, c.id, c.sendUpdate)
	c.hub.log.Debug("subscribed", "client_id", c.id, "pv", pvName)
}

func (c *client) unsubscribe(pvName string) {
	c.mu.Lock()
	if _, ok := c.subs[pvName]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.subs, pvName)
	c.mu.Unlock()

	c.hub.provider.Unsubscribe(pvName, c.id)
	c.hub.log.Debug("unsubscribed", "client_id", c.id, "pv", pvName)
}

// sendUpdate encodes and writes one update. Write errors are ignored;
// the read loop notices the broken connection and cleans up.
func (c *client) sendUpdate(u pv.Update) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	data, err := wire.EncodeUpdate(u)
	if err != nil {
		return
	}

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.hub.log.Debug("send failed, client likely disconnected", "client_id", c.id)
		return
	}

	c.hub.capture.Log(caplog.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    caplog.DirectionOut,
		Layer:        caplog.LayerWire,
		RemoteAddr:   c.remote,
		Message: &caplog.MessageEvent{
			Type:     wire.TypePVUpdate,
			PV:       u.Name,
			Severity: int(u.Severity),
		},
	})
}
