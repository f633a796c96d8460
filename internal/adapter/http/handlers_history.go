package adapthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dietplan/internal/app"
	"dietplan/internal/domain"
)

type observationRequest struct {
	Value *float64   `json:"value" validate:"required"`
	Unit  string     `json:"unit" validate:"omitempty,oneof=kg lb"`
	At    *time.Time `json:"at"`
}

// seriesKind resolves the {kind} URL parameter, writing a 404 for unknown
// series.
func (s *Server) seriesKind(w http.ResponseWriter, r *http.Request) (domain.SeriesKind, bool) {
	kind, err := domain.ParseSeriesKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return "", false
	}
	return kind, true
}

func (s *Server) handleRecordObservation(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.seriesKind(w, r)
	if !ok {
		return
	}
	var body observationRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	at := s.now()
	if body.At != nil {
		at = *body.At
	}
	summary, err := s.svc.History.Record(r.Context(), userFrom(r.Context()).ID, kind, app.Reading{
		Value: *body.Value,
		Unit:  body.Unit,
		At:    at,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.seriesKind(w, r)
	if !ok {
		return
	}
	series, err := s.svc.History.Series(r.Context(), userFrom(r.Context()).ID, kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "items": series})
}

func (s *Server) handleSeriesSummary(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.seriesKind(w, r)
	if !ok {
		return
	}
	summary, err := s.svc.History.Summary(r.Context(), userFrom(r.Context()).ID, kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSeriesTrend(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.seriesKind(w, r)
	if !ok {
		return
	}
	values, err := s.svc.History.Trend(r.Context(), userFrom(r.Context()).ID, kind, intQuery(r, "window", 0))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "values": values})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Get(r.Context(), userFrom(r.Context()).ID, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
