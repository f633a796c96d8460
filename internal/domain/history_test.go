package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"dietplan/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func seriesOf(values ...float64) domain.Series {
	s := make(domain.Series, 0, len(values))
	for i, v := range values {
		s = append(s, domain.Observation{Value: v, At: t0.Add(time.Duration(i) * time.Hour)})
	}
	return s
}

func TestAppendObservation_TwiceKeepsCallOrder(t *testing.T) {
	s := seriesOf(80, 79.5)
	s1, err := domain.AppendObservation(s, 79.1, t0.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := domain.AppendObservation(s1, 78.8, t0.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s2) != len(s)+2 {
		t.Fatalf("expected %d entries, got %d", len(s)+2, len(s2))
	}
	if s2[2].Value != 79.1 || s2[3].Value != 78.8 {
		t.Fatalf("new entries out of order: %v", s2[2:])
	}
}

func TestAppendObservation_DuplicateTimestampsAreDistinct(t *testing.T) {
	s, _ := domain.AppendObservation(nil, 500, t0)
	s, _ = domain.AppendObservation(s, 700, t0)
	if len(s) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(s))
	}
}

func TestAppendObservation_DoesNotReorder(t *testing.T) {
	s := seriesOf(1, 2)
	s, _ = domain.AppendObservation(s, 3, t0.Add(-24*time.Hour))
	if s[2].Value != 3 {
		t.Fatalf("expected older timestamp appended at the end, got %v", s)
	}
}

func TestAppendObservation_LeavesSnapshotUntouched(t *testing.T) {
	snapshot := make(domain.Series, 2, 8)
	copy(snapshot, seriesOf(1, 2))

	a, _ := domain.AppendObservation(snapshot, 10, t0)
	b, _ := domain.AppendObservation(snapshot, 20, t0)

	if len(snapshot) != 2 {
		t.Fatalf("snapshot length changed to %d", len(snapshot))
	}
	if a[2].Value != 10 || b[2].Value != 20 {
		t.Fatalf("appends aliased each other: a=%v b=%v", a, b)
	}
}

func TestAppendObservation_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := domain.AppendObservation(seriesOf(1), v, t0)
		if !errors.Is(err, domain.ErrInvalidObservation) {
			t.Errorf("value %v: expected ErrInvalidObservation, got %v", v, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		series    domain.Series
		wantCount int
		wantDelta float64
	}{
		{"empty", nil, 0, 0},
		{"single entry", seriesOf(80), 1, 0},
		{"loss", seriesOf(80, 79, 77.5), 3, -2.5},
		{"gain", seriesOf(1800, 2100), 2, 300},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.Summarize(tc.series)
			if got.Count != tc.wantCount {
				t.Errorf("Count = %d; want %d", got.Count, tc.wantCount)
			}
			if !almostEqual(got.Delta, tc.wantDelta, 1e-9) {
				t.Errorf("Delta = %v; want %v", got.Delta, tc.wantDelta)
			}
		})
	}
}

func TestSummarize_Endpoints(t *testing.T) {
	s := seriesOf(80, 79, 77.5)
	got := domain.Summarize(s)
	if got.First != s[0] || got.Last != s[2] {
		t.Fatalf("unexpected endpoints: %+v", got)
	}
}

func TestWindowedTrend(t *testing.T) {
	tests := []struct {
		name   string
		series domain.Series
		window int
		want   []float64
	}{
		{"shorter than window", seriesOf(75, 74), 4, []float64{75, 74}},
		{"exact", seriesOf(75, 74, 72.5, 71), 4, []float64{75, 74, 72.5, 71}},
		{"longer keeps most recent", seriesOf(76, 75, 74, 72.5, 71), 4, []float64{75, 74, 72.5, 71}},
		{"empty", nil, 4, []float64{}},
		{"zero window", seriesOf(1, 2), 0, []float64{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.WindowedTrend(tc.series, tc.window)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v; want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v; want %v", got, tc.want)
				}
			}
		})
	}
}

func TestParseSeriesKind(t *testing.T) {
	if _, err := domain.ParseSeriesKind("weight"); err != nil {
		t.Errorf("weight: %v", err)
	}
	if _, err := domain.ParseSeriesKind("calories"); err != nil {
		t.Errorf("calories: %v", err)
	}
	if _, err := domain.ParseSeriesKind("water"); err == nil {
		t.Error("expected error for unknown series")
	}
}
