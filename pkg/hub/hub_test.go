package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanSLAC/eiwyg/pkg/instrument"
	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/timeseries"
	"github.com/deanSLAC/eiwyg/pkg/wire"
)

func newSim(t *testing.T, channels ...instrument.ChannelConfig) *instrument.Sim {
	t.Helper()
	s, err := instrument.NewSim(instrument.SimConfig{Channels: channels}, nil)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func startHub(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	h.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) *wire.PVUpdate {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := wire.DecodeUpdate(data)
	require.NoError(t, err)
	return msg
}

func sendFrame(t *testing.T, conn *websocket.Conn, data []byte) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSubscribePrimesAndStreams(t *testing.T) {
	sim := newSim(t, instrument.ChannelConfig{Name: "SIM:FLOW:1", Initial: 5.0, Static: true})
	srv := startHub(t, New(sim, Options{}))
	conn := dialWS(t, srv)

	sub, err := wire.EncodeSubscribe([]string{"SIM:FLOW:1"})
	require.NoError(t, err)
	sendFrame(t, conn, sub)

	// Priming: the cached value arrives without waiting for a change.
	msg := readUpdate(t, conn)
	assert.Equal(t, "SIM:FLOW:1", msg.PV)
	assert.Equal(t, 5.0, msg.Value)

	// A provider-side change streams through.
	require.NoError(t, sim.Put("SIM:FLOW:1", 6.5))
	msg = readUpdate(t, conn)
	assert.Equal(t, 6.5, msg.Value)
}

func TestPutFromClient(t *testing.T) {
	sim := newSim(t, instrument.ChannelConfig{Name: "SIM:FLOW:1", Initial: 5.0, Static: true})
	srv := startHub(t, New(sim, Options{}))
	conn := dialWS(t, srv)

	put, err := wire.EncodePut("SIM:FLOW:1", 9.0)
	require.NoError(t, err)
	sendFrame(t, conn, put)

	waitFor(t, func() bool {
		u, ok := sim.Current("SIM:FLOW:1")
		if !ok {
			return false
		}
		v, _ := u.Float()
		return v == 9.0
	}, "put never reached the provider")
}

func TestUnsubscribeStopsUpdates(t *testing.T) {
	sim := newSim(t, instrument.ChannelConfig{Name: "SIM:FLOW:1", Initial: 5.0, Static: true})
	srv := startHub(t, New(sim, Options{}))
	conn := dialWS(t, srv)

	sub, err := wire.EncodeSubscribe([]string{"SIM:FLOW:1"})
	require.NoError(t, err)
	sendFrame(t, conn, sub)
	readUpdate(t, conn) // prime

	unsub, err := wire.EncodeUnsubscribe([]string{"SIM:FLOW:1"})
	require.NoError(t, err)
	sendFrame(t, conn, unsub)

	// Give the unsubscribe time to land, then change the value.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sim.Put("SIM:FLOW:1", 7.0))

	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "expected no frame after unsubscribe")
}

func TestMalformedFramesDropped(t *testing.T) {
	sim := newSim(t, instrument.ChannelConfig{Name: "SIM:FLOW:1", Initial: 5.0, Static: true})
	srv := startHub(t, New(sim, Options{}))
	conn := dialWS(t, srv)

	sendFrame(t, conn, []byte("not json"))
	sendFrame(t, conn, []byte(`{"type":"mystery"}`))
	sendFrame(t, conn, []byte(`{"type":"put","pv":"SIM:FLOW:1"}`)) // missing value

	// The connection survives and still serves subscriptions.
	sub, err := wire.EncodeSubscribe([]string{"SIM:FLOW:1"})
	require.NoError(t, err)
	sendFrame(t, conn, sub)

	msg := readUpdate(t, conn)
	assert.Equal(t, "SIM:FLOW:1", msg.PV)
}

// fakeProvider records subscription bookkeeping for cleanup assertions.
type fakeProvider struct {
	mu     sync.Mutex
	subs   map[string]string // pv -> subscriber id
	unsubs []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{subs: make(map[string]string)}
}

func (f *fakeProvider) Subscribe(pvName, subscriberID string, cb instrument.Callback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[pvName] = subscriberID
}

func (f *fakeProvider) Unsubscribe(pvName, subscriberID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, pvName)
	f.unsubs = append(f.unsubs, pvName)
}

func (f *fakeProvider) Put(pvName string, value any) error { return nil }

func (f *fakeProvider) Current(pvName string) (pv.Update, bool) {
	return pv.Update{}, false
}

func (f *fakeProvider) unsubCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.unsubs)
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	provider := newFakeProvider()
	h := New(provider, Options{})
	srv := startHub(t, h)
	conn := dialWS(t, srv)

	sub, err := wire.EncodeSubscribe([]string{"BPM:X", "BPM:Y"})
	require.NoError(t, err)
	sendFrame(t, conn, sub)

	waitFor(t, func() bool {
		provider.mu.Lock()
		defer provider.mu.Unlock()
		return len(provider.subs) == 2
	}, "subscriptions never registered")
	assert.Equal(t, 1, h.ClientCount())

	conn.Close()

	waitFor(t, func() bool { return provider.unsubCount() == 2 }, "subscriptions never released")
	waitFor(t, func() bool { return h.ClientCount() == 0 }, "client never dropped")
}

func TestHistoryEndpoint(t *testing.T) {
	rec := timeseries.NewRecorder(1000)
	now := time.Now()
	base := float64(now.Unix())
	rec.Record("BPM:X", 1.0, base-30)
	rec.Record("BPM:X", 2.0, base-20)
	rec.Record("BPM:X", 3.0, base-10)

	sim := newSim(t)
	srv := startHub(t, New(sim, Options{Recorder: rec}))

	t.Run("ReturnsPointsInSeconds", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/pv-history/BPM:X?window=3600&max_points=500")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc struct {
			PV        string  `json:"pv"`
			Window    float64 `json:"window"`
			MaxPoints int     `json:"max_points"`
			Data      []struct {
				T float64 `json:"t"`
				V float64 `json:"v"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "BPM:X", doc.PV)
		require.Len(t, doc.Data, 3)
		assert.InDelta(t, base-30, doc.Data[0].T, 0.001)
		assert.Equal(t, 3.0, doc.Data[2].V)
	})

	t.Run("UnknownPVIsEmptyArray", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/pv-history/NOPE")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := make([]byte, 4096)
		n, _ := resp.Body.Read(body)
		assert.Contains(t, string(body[:n]), `"data":[]`)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/pv-history/BPM:X", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}
