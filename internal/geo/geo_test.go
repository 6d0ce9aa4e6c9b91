package geo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected, delta        float64
	}{
		{"same point", 40.0, -73.0, 40.0, -73.0, 0, 0.001},
		{"one degree latitude", 0, 0, 1, 0, 111195, 5},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343556, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("Distance = %f, want %f (±%f)", got, tt.expected, tt.delta)
			}
		})
	}
}

func TestWithinRadius(t *testing.T) {
	// ~111m north of the origin
	if !WithinRadius(0.001, 0, 0, 0, 150) {
		t.Error("expected point within 150m")
	}
	if WithinRadius(0.001, 0, 0, 0, 100) {
		t.Error("expected point outside 100m")
	}
}

func TestMatching(t *testing.T) {
	saved := []SavedLocation{
		{ID: "mosque", Latitude: 0, Longitude: 0, Radius: 200},
		{ID: "office", Latitude: 1, Longitude: 1, Radius: 200},
	}
	got := Matching(saved, Location{Latitude: 0.0005, Longitude: 0})
	if len(got) != 1 || got[0].ID != "mosque" {
		t.Errorf("expected only mosque to match, got %+v", got)
	}
}

func TestNominatimAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("lat") != "51.5" || q.Get("lon") != "-0.12" || q.Get("zoom") != "18" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "qa-test" {
			t.Errorf("missing user agent")
		}
		w.Write([]byte(`{"address":{"road":"Whitehall","town":"Westminster","state":"England","country":"United Kingdom"}}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, "qa-test", time.Second)
	got, err := g.Address(context.Background(), 51.5, -0.12)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if want := "Whitehall, Westminster, England, United Kingdom"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNominatimEmptyAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{}}`))
	}))
	defer srv.Close()

	got, err := NewNominatimGeocoder(srv.URL, "", 0).Address(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if got != UnknownLocation {
		t.Errorf("got %q", got)
	}
}

func TestDescribeFallsBackToCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	got := Describe(context.Background(), NewNominatimGeocoder(srv.URL, "", 0), 12.3456789, -98.7654321)
	if want := "Lat: 12.345679, Lng: -98.765432"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNominatimHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewNominatimGeocoder(srv.URL, "", 0).Address(context.Background(), 0, 0); err == nil {
		t.Error("expected error on 429")
	}
}

type stepLocator struct {
	calls int
}

func (s *stepLocator) Current(ctx context.Context) (Location, error) {
	s.calls++
	if s.calls == 2 {
		return Location{}, ErrPermissionDenied
	}
	return Location{Latitude: float64(s.calls)}, nil
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &stepLocator{}
	var fixes []Location
	var errs []error

	done := make(chan struct{})
	go func() {
		Watch(ctx, l, time.Millisecond, func(loc Location) {
			fixes = append(fixes, loc)
			if len(fixes) == 2 {
				cancel()
			}
		}, func(err error) { errs = append(errs, err) })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	if len(fixes) != 2 || fixes[1].Latitude != 3 {
		t.Errorf("unexpected fixes %+v", fixes)
	}
	if len(errs) != 1 {
		t.Errorf("expected one error, got %v", errs)
	}
}
