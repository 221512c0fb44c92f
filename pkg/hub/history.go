package hub

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// historyPathPrefix is the history endpoint's path, with the PV name
// as the remaining path segment.
const historyPathPrefix = "/api/pv-history/"

// History query bounds, matching what plot widgets may reasonably ask
// for.
const (
	defaultHistoryWindow    = 3600.0 // seconds
	defaultHistoryMaxPoints = 1000
	maxHistoryMaxPoints     = 10000
)

type historyPoint struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

type historyResponse struct {
	PV        string         `json:"pv"`
	Window    float64        `json:"window"`
	MaxPoints int            `json:"max_points"`
	Data      []historyPoint `json:"data"`
}

// HandleHistory serves GET /api/pv-history/{pv}?window=&max_points=.
// Timestamps go out as unix seconds. A PV with no recorded data yields
// an empty data array, not an error.
func (h *Hub) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.recorder == nil {
		http.Error(w, "history not enabled", http.StatusNotFound)
		return
	}

	pvName := strings.TrimPrefix(r.URL.Path, historyPathPrefix)
	if pvName == "" {
		http.Error(w, "missing pv name", http.StatusBadRequest)
		return
	}

	window := defaultHistoryWindow
	if s := r.URL.Query().Get("window"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			window = v
		}
	}
	if window < 1 {
		window = 1
	}

	maxPoints := defaultHistoryMaxPoints
	if s := r.URL.Query().Get("max_points"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			maxPoints = v
		}
	}
	if maxPoints < 1 {
		maxPoints = 1
	}
	if maxPoints > maxHistoryMaxPoints {
		maxPoints = maxHistoryMaxPoints
	}

	points := h.recorder.History(pvName,
		time.Duration(window*float64(time.Second)), maxPoints, time.Now())

	resp := historyResponse{
		PV:        pvName,
		Window:    window,
		MaxPoints: maxPoints,
		Data:      make([]historyPoint, 0, len(points)),
	}
	for _, p := range points {
		resp.Data = append(resp.Data, historyPoint{T: p.T / 1000, V: p.V})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Debug("failed to write history response", "pv", pvName, "error", err)
	}
}
