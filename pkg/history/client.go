package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/timeseries"
)

// Client errors.
var (
	ErrMissingPV = errors.New("no pv name given")
)

// DefaultTimeout bounds a single history fetch.
const DefaultTimeout = 10 * time.Second

// Client fetches PV history from a server's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a history client for the given server base URL,
// e.g. "http://host:8080". An optional *http.Client overrides the
// default with its 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// response mirrors the server's history document. Point timestamps are
// unix seconds on the wire.
type response struct {
	PV   string `json:"pv"`
	Data []struct {
		T float64 `json:"t"`
		V float64 `json:"v"`
	} `json:"data"`
}

// Fetch retrieves downsampled history for one PV covering the given
// window. The result is sorted ascending with timestamps converted to
// the milliseconds used by time series points. An unknown PV yields an
// empty, non-nil slice.
func (c *Client) Fetch(ctx context.Context, pvName string, window time.Duration, maxPoints int) ([]timeseries.Point, error) {
	if pvName == "" {
		return nil, ErrMissingPV
	}

	q := url.Values{}
	q.Set("window", strconv.FormatFloat(window.Seconds(), 'f', -1, 64))
	q.Set("max_points", strconv.Itoa(maxPoints))
	endpoint := c.baseURL + "/api/pv-history/" + url.PathEscape(pvName) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history fetch for %s failed: %w", pvName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch for %s: unexpected status %d", pvName, resp.StatusCode)
	}

	var doc response
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode history for %s: %w", pvName, err)
	}

	points := make([]timeseries.Point, 0, len(doc.Data))
	for _, d := range doc.Data {
		points = append(points, timeseries.Point{T: d.T * 1000, V: d.V})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].T < points[j].T })
	return points, nil
}
