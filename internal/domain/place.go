package domain

import (
	"context"
	"errors"
	"math"
	"sort"
)

// ErrProviderUnavailable wraps failures of the external place-search provider.
var ErrProviderUnavailable = errors.New("place provider unavailable")

// Candidate is an unranked point of interest from a place-search provider.
// Only Location is interpreted; the other fields pass through.
type Candidate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Category string   `json:"type"`
	Location GeoPoint `json:"location"`
}

// RankedPlace is a Candidate within the search radius, with its distance from
// the origin rounded to two decimals and its 1-based position.
type RankedPlace struct {
	Candidate
	DistanceKm float64 `json:"distance"`
	Rank       int     `json:"rank"`
}

// PlaceDetails is the extended record for a single place.
type PlaceDetails struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	Category     string            `json:"type"`
	Location     GeoPoint          `json:"location"`
	Amenities    map[string]string `json:"amenities"`
	OpeningHours string            `json:"openingHours"`
}

// PlaceSearcher is the port for the external place-search provider. Details
// returns ErrNotFound for an unknown id.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, near GeoPoint, limit int) ([]Candidate, error)
	Details(ctx context.Context, id string) (*PlaceDetails, error)
}

// RankNearby keeps the candidates within radiusKm of origin (inclusive) and
// orders them by ascending distance, ties in input order. Candidates with
// invalid coordinates are dropped. Filtering and sorting use the exact
// distance; only the returned DistanceKm is rounded.
func RankNearby(origin GeoPoint, candidates []Candidate, radiusKm float64) []RankedPlace {
	out := []RankedPlace{}
	if radiusKm <= 0 || math.IsNaN(radiusKm) || origin.Validate() != nil {
		return out
	}

	exact := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if c.Location.Validate() != nil {
			continue
		}
		d := DistanceKm(origin, c.Location)
		if !(d <= radiusKm) {
			continue
		}
		out = append(out, RankedPlace{Candidate: c})
		exact = append(exact, d)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return exact[idx[i]] < exact[idx[j]] })

	ranked := make([]RankedPlace, len(out))
	for rank, i := range idx {
		p := out[i]
		p.DistanceKm = roundTo(exact[i], 2)
		p.Rank = rank + 1
		ranked[rank] = p
	}
	return ranked
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
