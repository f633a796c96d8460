package nominatim

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"dietplan/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewClient(Config{Endpoint: srv.URL + "/", UserAgent: "dietplan-test"}, srv.Client(), logger)
	return c, &buf
}

func TestSearch_ParsesResults(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s; want /search", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "salad" || q.Get("limit") != "5" || q.Get("format") != "json" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("lat") != "37.5665" || q.Get("lon") != "126.978" {
			t.Errorf("unexpected origin: lat=%s lon=%s", q.Get("lat"), q.Get("lon"))
		}
		if ua := r.Header.Get("User-Agent"); ua != "dietplan-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"place_id": 101, "lat": "37.5651", "lon": "126.9895", "display_name": "Green Bowl, Jongno-gu, Seoul", "type": "restaurant"},
			{"place_id": 102, "lat": "not-a-number", "lon": "126.98", "display_name": "Broken", "type": "cafe"},
			{"place_id": 103, "lat": "37.57", "lon": "126.97", "display_name": "Noodle House", "type": "fast_food"}
		]`))
	})

	got, err := c.Search(context.Background(), "salad", domain.GeoPoint{Lat: 37.5665, Lon: 126.9780}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", got)
	}
	want := domain.Candidate{
		ID:       "101",
		Name:     "Green Bowl",
		Address:  "Green Bowl, Jongno-gu, Seoul",
		Category: "restaurant",
		Location: domain.GeoPoint{Lat: 37.5651, Lon: 126.9895},
	}
	if got[0] != want {
		t.Errorf("got %+v; want %+v", got[0], want)
	}
	if got[1].Name != "Noodle House" {
		t.Errorf("name without comma = %q", got[1].Name)
	}
	if !bytes.Contains(logs.Bytes(), []byte(`"place_id":102`)) {
		t.Errorf("expected dropped record to be logged, got %s", logs.String())
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Search(context.Background(), "x", domain.GeoPoint{}, 10)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestSearch_BadJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"oops"`))
	})
	_, err := c.Search(context.Background(), "x", domain.GeoPoint{}, 10)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestSearch_CanceledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Search(ctx, "x", domain.GeoPoint{}, 10); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestDetails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/details" || r.URL.Query().Get("place_id") != "101" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{
			"place_id": 101,
			"localname": "Green Bowl",
			"category": "amenity",
			"extratags": {"opening_hours": "Mo-Fr 10:00-21:00", "diet:vegan": "yes"},
			"centroid": {"type": "Point", "coordinates": [126.9895, 37.5651]},
			"address": [
				{"localname": "Green Bowl", "isaddress": true},
				{"localname": "Jongno-gu", "isaddress": true},
				{"localname": "Korea", "isaddress": false}
			]
		}`))
	})

	got, err := c.Details(context.Background(), "101")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if got.Name != "Green Bowl" || got.Category != "amenity" || got.Address != "Green Bowl, Jongno-gu" {
		t.Errorf("unexpected details: %+v", got)
	}
	if got.Location != (domain.GeoPoint{Lat: 37.5651, Lon: 126.9895}) {
		t.Errorf("centroid not mapped to lat/lng: %+v", got.Location)
	}
	if got.OpeningHours != "Mo-Fr 10:00-21:00" || got.Amenities["diet:vegan"] != "yes" {
		t.Errorf("extratags not mapped: %+v", got)
	}
}

func TestDetails_Defaults(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"place_id": 7, "names": {"name": "Corner Cafe"}, "centroid": {"coordinates": [1, 2]}}`))
	})
	got, err := c.Details(context.Background(), "7")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if got.Name != "Corner Cafe" || got.OpeningHours != "unknown" || got.Amenities == nil {
		t.Fatalf("unexpected details: %+v", got)
	}
}

func TestDetails_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": 404, "message": "No place with that OSM ID found."}}`))
	})
	if _, err := c.Details(context.Background(), "999"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Details(context.Background(), "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-numeric id, got %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, nil, slog.Default())
	if c.endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q", c.endpoint)
	}
	if c.httpClient == nil {
		t.Error("expected an http client")
	}
}
