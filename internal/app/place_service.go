package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dietplan/internal/domain"
	"dietplan/internal/metrics"
)

const defaultPlaceQuery = "restaurant"

// PlaceService finds places near the user through the external searcher and
// ranks them by distance.
type PlaceService struct {
	searcher      domain.PlaceSearcher
	metrics       metrics.Recorder
	logger        *slog.Logger
	limit         int
	defaultRadius float64
}

// NewPlaceService creates a PlaceService. limit caps the candidates requested
// from the provider and defaultRadius applies when a query gives none.
func NewPlaceService(searcher domain.PlaceSearcher, rec metrics.Recorder, logger *slog.Logger, limit int, defaultRadius float64) *PlaceService {
	return &PlaceService{
		searcher:      searcher,
		metrics:       rec,
		logger:        logger,
		limit:         limit,
		defaultRadius: defaultRadius,
	}
}

// Nearby searches for query around origin and returns the matches within
// radiusKm, nearest first. An empty query searches for restaurants and a
// radius of zero uses the default.
func (s *PlaceService) Nearby(ctx context.Context, origin domain.GeoPoint, query string, radiusKm float64) ([]domain.RankedPlace, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if radiusKm == 0 {
		radiusKm = s.defaultRadius
	}
	if radiusKm < 0 {
		return nil, fmt.Errorf("%w: radius must be > 0", ErrInvalidInput)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		query = defaultPlaceQuery
	}

	start := time.Now()
	candidates, err := s.searcher.Search(ctx, query, origin, s.limit)
	if err != nil {
		s.metrics.RecordPlaceSearchFailure()
		s.logger.Error("place search failed", slog.String("query", query), slog.String("error", err.Error()))
		return nil, err
	}

	excluded := 0
	for _, c := range candidates {
		if err := c.Location.Validate(); err != nil {
			excluded++
			s.logger.Warn("place candidate excluded",
				slog.String("id", c.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	ranked := domain.RankNearby(origin, candidates, radiusKm)
	s.metrics.RecordPlaceSearch(len(ranked), excluded, time.Since(start))
	return ranked, nil
}

// Details returns the extended record for a place.
func (s *PlaceService) Details(ctx context.Context, id string) (*domain.PlaceDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: place id is required", ErrInvalidInput)
	}
	return s.searcher.Details(ctx, id)
}
