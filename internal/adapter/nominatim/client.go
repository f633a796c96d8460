// Package nominatim implements domain.PlaceSearcher on the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dietplan/internal/domain"
)

// DefaultEndpoint is the public Nominatim instance.
const DefaultEndpoint = "https://nominatim.openstreetmap.org"

const unknownOpeningHours = "unknown"

// Config holds the client settings.
type Config struct {
	Endpoint       string
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
}

// Client calls the Nominatim search and details endpoints. Requests are
// throttled to RequestsPerSec across all callers.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	endpoint   string
	userAgent  string
}

var _ domain.PlaceSearcher = (*Client)(nil)

// NewClient creates a Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		endpoint:   endpoint,
		userAgent:  cfg.UserAgent,
	}
}

type searchResult struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// Search runs a free-text query biased towards near. Results whose
// coordinates cannot be parsed are dropped.
func (c *Client) Search(ctx context.Context, query string, near domain.GeoPoint, limit int) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("lat", strconv.FormatFloat(near.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(near.Lon, 'f', -1, 64))
	q.Set("addressdetails", "1")

	var results []searchResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			c.logger.Warn("nominatim result dropped: unparsable coordinates",
				slog.Int64("place_id", r.PlaceID),
				slog.String("lat", r.Lat),
				slog.String("lon", r.Lon),
			)
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ID:       strconv.FormatInt(r.PlaceID, 10),
			Name:     firstSegment(r.DisplayName),
			Address:  r.DisplayName,
			Category: r.Type,
			Location: domain.GeoPoint{Lat: lat, Lon: lon},
		})
	}
	return candidates, nil
}

type detailsResult struct {
	PlaceID   int64             `json:"place_id"`
	LocalName string            `json:"localname"`
	Names     map[string]string `json:"names"`
	Category  string            `json:"category"`
	ExtraTags map[string]string `json:"extratags"`
	Centroid  struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"centroid"`
	Address []struct {
		LocalName string `json:"localname"`
		IsAddress bool   `json:"isaddress"`
	} `json:"address"`
}

// Details looks up a single place by its Nominatim place_id.
func (c *Client) Details(ctx context.Context, id string) (*domain.PlaceDetails, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, domain.ErrNotFound
	}
	q := url.Values{}
	q.Set("place_id", id)
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	var r detailsResult
	if err := c.get(ctx, "/details", q, &r); err != nil {
		return nil, err
	}
	if r.PlaceID == 0 {
		return nil, domain.ErrNotFound
	}

	d := &domain.PlaceDetails{
		ID:           strconv.FormatInt(r.PlaceID, 10),
		Name:         r.LocalName,
		Category:     r.Category,
		Amenities:    r.ExtraTags,
		OpeningHours: r.ExtraTags["opening_hours"],
	}
	if d.Name == "" {
		d.Name = r.Names["name"]
	}
	if d.Amenities == nil {
		d.Amenities = map[string]string{}
	}
	if d.OpeningHours == "" {
		d.OpeningHours = unknownOpeningHours
	}
	if len(r.Centroid.Coordinates) == 2 {
		d.Location = domain.GeoPoint{Lat: r.Centroid.Coordinates[1], Lon: r.Centroid.Coordinates[0]}
	}
	var parts []string
	for _, a := range r.Address {
		if a.IsAddress && a.LocalName != "" {
			parts = append(parts, a.LocalName)
		}
	}
	d.Address = strings.Join(parts, ", ")
	return d, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("nominatim request failed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("nominatim returned an error status",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrProviderUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("nominatim response could not be parsed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("%w: decode: %v", domain.ErrProviderUnavailable, err)
	}
	return nil
}

// firstSegment returns the part of a display name before the first comma.
func firstSegment(displayName string) string {
	name, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(name)
}
