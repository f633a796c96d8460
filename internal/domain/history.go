package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidObservation reports a non-finite observation value.
	ErrInvalidObservation = errors.New("invalid observation")
	// ErrStaleSeries reports a write-back whose snapshot no longer matches the
	// stored series.
	ErrStaleSeries = errors.New("series changed since it was read")
)

// SeriesKind names one of a user's history series.
type SeriesKind string

const (
	SeriesWeight   SeriesKind = "weight"
	SeriesCalories SeriesKind = "calories"
)

// ParseSeriesKind accepts "weight" or "calories".
func ParseSeriesKind(s string) (SeriesKind, error) {
	switch SeriesKind(s) {
	case SeriesWeight, SeriesCalories:
		return SeriesKind(s), nil
	}
	return "", fmt.Errorf("unknown series %q", s)
}

// Observation is a single timestamped measurement.
type Observation struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// Series is a user's observations in append order. Entries are never
// re-sorted, so equal or out-of-order timestamps keep their position.
type Series []Observation

// AppendObservation returns series extended by one observation. The input is
// left untouched and never shares its backing array with the result.
func AppendObservation(series Series, value float64, at time.Time) (Series, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be finite", ErrInvalidObservation)
	}
	out := make(Series, len(series), len(series)+1)
	copy(out, series)
	return append(out, Observation{Value: value, At: at}), nil
}

// Summary describes the endpoints of a series.
type Summary struct {
	First Observation `json:"first"`
	Last  Observation `json:"last"`
	Delta float64     `json:"delta"`
	Count int         `json:"count"`
}

// Summarize reports the first and last entries and the change between them.
// Delta is zero for series with fewer than two entries.
func Summarize(series Series) Summary {
	n := len(series)
	if n == 0 {
		return Summary{}
	}
	s := Summary{First: series[0], Last: series[n-1], Count: n}
	if n > 1 {
		s.Delta = s.Last.Value - s.First.Value
	}
	return s
}

// WindowedTrend returns the values of the last windowCount entries in
// chronological order. Shorter series are returned whole, never padded.
func WindowedTrend(series Series, windowCount int) []float64 {
	if windowCount <= 0 {
		return []float64{}
	}
	start := len(series) - windowCount
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(series)-start)
	for _, o := range series[start:] {
		out = append(out, o.Value)
	}
	return out
}

// HistoryRepository is the port for series persistence. StoreSeries receives
// the full updated series and must return ErrStaleSeries if the stored series
// has grown past the snapshot the caller appended to.
type HistoryRepository interface {
	LoadSeries(ctx context.Context, userID int64, kind SeriesKind) (Series, error)
	StoreSeries(ctx context.Context, userID int64, kind SeriesKind, series Series) error
}
