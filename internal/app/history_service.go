package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dietplan/internal/domain"
	"dietplan/internal/metrics"
)

// HistoryService records weight and calorie observations and reads trends.
type HistoryService struct {
	repo     domain.HistoryRepository
	profiles *ProfileService
	metrics  metrics.Recorder
	logger   *slog.Logger
	window   int
}

// NewHistoryService creates a HistoryService. window is the default trend
// length. profiles may be nil, in which case weight readings do not update the
// profile's current weight.
func NewHistoryService(repo domain.HistoryRepository, profiles *ProfileService, rec metrics.Recorder, logger *slog.Logger, window int) *HistoryService {
	return &HistoryService{repo: repo, profiles: profiles, metrics: rec, logger: logger, window: window}
}

// Reading is a single value to append. Unit only applies to weight.
type Reading struct {
	Value float64
	Unit  string
	At    time.Time
}

// Record appends a reading to the user's series. The stored series is read,
// extended in memory and written back; a concurrent writer surfaces as
// domain.ErrStaleSeries. A weight reading also becomes the profile's current
// weight; failing to update the profile is logged, since the reading itself
// is already stored.
func (s *HistoryService) Record(ctx context.Context, userID int64, kind domain.SeriesKind, r Reading) (domain.Summary, error) {
	value := r.Value
	if kind == domain.SeriesWeight {
		unit, err := domain.ParseWeightUnit(r.Unit)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if value <= 0 {
			return domain.Summary{}, fmt.Errorf("%w: weight must be > 0", ErrInvalidInput)
		}
		value = domain.ToKilograms(value, unit)
	} else if value < 0 {
		return domain.Summary{}, fmt.Errorf("%w: calories must be >= 0", ErrInvalidInput)
	}

	series, err := s.repo.LoadSeries(ctx, userID, kind)
	if err != nil {
		return domain.Summary{}, err
	}
	series, err = domain.AppendObservation(series, value, r.At)
	if err != nil {
		return domain.Summary{}, err
	}
	if err := s.repo.StoreSeries(ctx, userID, kind, series); err != nil {
		if errors.Is(err, domain.ErrStaleSeries) {
			s.metrics.RecordStaleWrite(string(kind))
			s.logger.Warn("stale series write rejected",
				slog.Int64("user_id", userID),
				slog.String("series", string(kind)),
			)
		}
		return domain.Summary{}, err
	}
	s.metrics.RecordObservation(string(kind))

	if kind == domain.SeriesWeight && s.profiles != nil {
		if err := s.profiles.applyWeight(ctx, userID, value); err != nil {
			s.logger.Error("weight recorded but profile not updated",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return domain.Summarize(series), nil
}

// Series returns the full series in append order.
func (s *HistoryService) Series(ctx context.Context, userID int64, kind domain.SeriesKind) (domain.Series, error) {
	series, err := s.repo.LoadSeries(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = domain.Series{}
	}
	return series, nil
}

// Summary summarizes the series.
func (s *HistoryService) Summary(ctx context.Context, userID int64, kind domain.SeriesKind) (domain.Summary, error) {
	series, err := s.repo.LoadSeries(ctx, userID, kind)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(series), nil
}

// Trend returns up to window most recent values, oldest first. A window of
// zero or less uses the configured default.
func (s *HistoryService) Trend(ctx context.Context, userID int64, kind domain.SeriesKind, window int) ([]float64, error) {
	if window <= 0 {
		window = s.window
	}
	series, err := s.repo.LoadSeries(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return domain.WindowedTrend(series, window), nil
}
