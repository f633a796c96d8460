package adapthttp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dietplan/internal/domain"
)

type placesQuery struct {
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng    float64 `json:"lng" validate:"gte=-180,lte=180"`
	Radius float64 `json:"radius" validate:"gte=0,lte=50"`
	Type   string  `json:"type" validate:"max=100"`
}

func (s *Server) handleNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	lat, hasLat, err := floatQuery(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lng, hasLng, err := floatQuery(r, "lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !hasLat || !hasLng {
		writeError(w, http.StatusBadRequest, errors.New("lat and lng are required"))
		return
	}
	radius, _, err := floatQuery(r, "radius")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	q := placesQuery{Lat: lat, Lng: lng, Radius: radius, Type: r.URL.Query().Get("type")}
	if err := s.validate.Struct(q); err != nil {
		s.fail(w, r, err)
		return
	}

	places, err := s.svc.Places.Nearby(r.Context(), domain.GeoPoint{Lat: q.Lat, Lon: q.Lng}, q.Type, q.Radius)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": places})
}

func (s *Server) handlePlaceDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.svc.Places.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}
