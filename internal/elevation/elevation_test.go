package elevation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/ridgeline-data/terrain.report/internal/geo"
	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

func TestSyntheticSource_Deterministic(t *testing.T) {
	src := NewSyntheticSource()
	ctx := context.Background()

	first, err := src.ElevationAt(ctx, 44.4759, -73.2121)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := src.ElevationAt(ctx, 44.4759, -73.2121)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("run %d returned %f, first returned %f", i, again, first)
		}
	}
}

func TestSyntheticSource_PlausibleRange(t *testing.T) {
	src := NewSyntheticSource()
	ctx := context.Background()

	// Amplitudes sum to base +- 1.75 * relief.
	lo := DefaultSyntheticBase - 1.75*DefaultSyntheticRelief
	hi := DefaultSyntheticBase + 1.75*DefaultSyntheticRelief
	for i := 0; i < 200; i++ {
		lat := 40 + float64(i)*0.005
		lon := -74 + float64(i)*0.003
		elev, err := src.ElevationAt(ctx, lat, lon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elev < lo || elev > hi {
			t.Errorf("(%f,%f): elevation %f outside [%f,%f]", lat, lon, elev, lo, hi)
		}
	}
}

type sourceFunc func(ctx context.Context, lat, lon float64) (float64, error)

func (f sourceFunc) ElevationAt(ctx context.Context, lat, lon float64) (float64, error) {
	return f(ctx, lat, lon)
}

func TestFetchGrid_Layout(t *testing.T) {
	// Elevation equal to latitude exposes row orientation.
	src := sourceFunc(func(_ context.Context, lat, _ float64) (float64, error) {
		return lat * 1000, nil
	})
	provider := NewProvider(src)

	grid, err := provider.FetchGrid(context.Background(), 44.4759, -73.2121, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Row 0 is northernmost, so its samples have the highest latitude.
	for r := 1; r < terrain.GridSize; r++ {
		if grid.Elevations[r][0] >= grid.Elevations[r-1][0] {
			t.Errorf("row %d should be south of row %d", r, r-1)
		}
	}
	if grid.Coords[0][0].Lon >= grid.Coords[0][terrain.GridSize-1].Lon {
		t.Error("column 0 should be west of the last column")
	}

	// The center cell sits exactly on the requested coordinate.
	half := terrain.GridSize / 2
	if grid.Coords[half][half] != (geo.Coordinate{Lat: 44.4759, Lon: -73.2121}) {
		t.Errorf("center cell coordinate %+v, want the request center", grid.Coords[half][half])
	}

	// Neighbouring samples are one spacing apart.
	d := geo.DistanceMeters(grid.Coords[2][2], grid.Coords[2][3])
	if math.Abs(d-50) > 0.5 {
		t.Errorf("column spacing %f m, want ~50", d)
	}
}

func TestFetchGrid_SourceFailure(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _, _ float64) (float64, error) {
		return 0, errors.New("boom")
	})
	provider := NewProvider(src)

	_, err := provider.FetchGrid(context.Background(), 44.4759, -73.2121, 50)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchGrid_NonFiniteSample(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _, _ float64) (float64, error) {
		return math.NaN(), nil
	})
	provider := NewProvider(src)

	_, err := provider.FetchGrid(context.Background(), 44.4759, -73.2121, 50)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for NaN samples, got %v", err)
	}
}

func TestFetchGrid_InvalidSpacing(t *testing.T) {
	provider := NewProvider(NewSyntheticSource())
	if _, err := provider.FetchGrid(context.Background(), 44.4759, -73.2121, 0); err == nil {
		t.Error("expected error for zero spacing")
	}
}

func TestTopoClient_FetchAndCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"status":"OK","results":[{"elevation":412.5}]}`)
	}))
	defer srv.Close()

	client := NewTopoClient(srv.URL, srv.Client())
	ctx := context.Background()

	elev, err := client.ElevationAt(ctx, 44.4759, -73.2121)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elev != 412.5 {
		t.Errorf("expected elevation 412.5, got %f", elev)
	}

	// Repeat lookups at the same point are served from cache.
	if _, err := client.ElevationAt(ctx, 44.4759, -73.2121); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits.Load())
	}

	// A point more than ~1m away is a fresh lookup.
	if _, err := client.ElevationAt(ctx, 44.4760, -73.2121); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 upstream hits, got %d", hits.Load())
	}
}

func TestTopoClient_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad status", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"SERVER_ERROR","results":[]}`)
		}},
		{"null elevation", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"OK","results":[{"elevation":null}]}`)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{{{`)
		}},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(tt.handler)
		client := NewTopoClient(srv.URL, srv.Client())
		if _, err := client.ElevationAt(context.Background(), 44.4759, -73.2121); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
		srv.Close()
	}
}

func TestTopoClient_BreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewTopoClient(srv.URL, srv.Client())
	ctx := context.Background()

	// Drive the breaker past its consecutive-failure threshold. Each
	// lookup must vary the coordinate to dodge the point cache.
	for i := 0; i < 10; i++ {
		lat := 44.0 + float64(i)*0.01
		if _, err := client.ElevationAt(ctx, lat, -73.2121); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	_, err := client.ElevationAt(ctx, 45.5, -73.2121)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected the breaker to be open, got %v", err)
	}
}
