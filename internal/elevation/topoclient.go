package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// TopoClient defaults.
const (
	// DefaultTopoBaseURL points at the public Open Topo Data API.
	DefaultTopoBaseURL = "https://api.opentopodata.org/v1/srtm30m"
	// topoRequestTimeout bounds a single lookup.
	topoRequestTimeout = 10 * time.Second
	// topoCacheKeyPrecision rounds cached coordinates to ~1 m so
	// overlapping grids reuse point lookups.
	topoCacheKeyPrecision = 1e5
)

// topoResponse mirrors the Open Topo Data JSON payload.
type topoResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// TopoClient looks up real elevations over HTTP with a circuit breaker
// and a point memoization cache, so a slow upstream does not get hit 25
// times per grid on refetch.
type TopoClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[float64]

	mu    sync.Mutex
	cache map[[2]int64]float64
}

// NewTopoClient creates a client against the given Open Topo Data
// compatible endpoint. An empty baseURL selects the public API.
func NewTopoClient(baseURL string, httpClient *http.Client) *TopoClient {
	if baseURL == "" {
		baseURL = DefaultTopoBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: topoRequestTimeout}
	}

	breaker := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "elevation-topo",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &TopoClient{
		baseURL: baseURL,
		client:  httpClient,
		breaker: breaker,
		cache:   map[[2]int64]float64{},
	}
}

// ElevationAt fetches the elevation at (lat, lon), serving repeats from
// the in-process cache. Breaker-open and upstream failures surface as
// ErrUnavailable via the provider.
func (t *TopoClient) ElevationAt(ctx context.Context, lat, lon float64) (float64, error) {
	key := [2]int64{
		int64(math.Round(lat * topoCacheKeyPrecision)),
		int64(math.Round(lon * topoCacheKeyPrecision)),
	}

	t.mu.Lock()
	if elev, ok := t.cache[key]; ok {
		t.mu.Unlock()
		return elev, nil
	}
	t.mu.Unlock()

	elev, err := t.breaker.Execute(func() (float64, error) {
		return t.fetch(ctx, lat, lon)
	})
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	t.cache[key] = elev
	t.mu.Unlock()
	return elev, nil
}

// fetch performs the actual HTTP lookup.
func (t *TopoClient) fetch(ctx context.Context, lat, lon float64) (float64, error) {
	url := fmt.Sprintf("%s?locations=%.6f,%.6f", t.baseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("elevation API returned %d", resp.StatusCode)
	}

	var payload topoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode elevation response: %w", err)
	}
	if payload.Status != "OK" || len(payload.Results) == 0 {
		return 0, fmt.Errorf("elevation API status %q with %d results", payload.Status, len(payload.Results))
	}
	if payload.Results[0].Elevation == nil {
		return 0, fmt.Errorf("no elevation value at %.6f,%.6f", lat, lon)
	}
	return *payload.Results[0].Elevation, nil
}
