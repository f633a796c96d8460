package adapthttp

import (
	"net/http"

	"dietplan/internal/app"
)

type profileRequest struct {
	Name            string   `json:"name" validate:"max=100"`
	CurrentWeight   float64  `json:"currentWeight" validate:"gt=0"`
	TargetWeight    float64  `json:"targetWeight" validate:"gte=0"`
	Unit            string   `json:"unit" validate:"omitempty,oneof=kg lb"`
	Height          float64  `json:"height" validate:"gt=0,lte=300"`
	Age             *int     `json:"age" validate:"omitempty,gt=0,lt=150"`
	Sex             *string  `json:"sex" validate:"omitempty,oneof=male female"`
	Allergies       []string `json:"allergies" validate:"max=50,dive,max=100"`
	DietPreferences []string `json:"dietPreferences" validate:"max=50,dive,max=100"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Profiles.Get(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var body profileRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.svc.Profiles.Update(r.Context(), userFrom(r.Context()).ID, app.ProfileInput{
		Name:            body.Name,
		CurrentWeight:   body.CurrentWeight,
		TargetWeight:    body.TargetWeight,
		Unit:            body.Unit,
		HeightCm:        body.Height,
		Age:             body.Age,
		Sex:             body.Sex,
		Allergies:       body.Allergies,
		DietPreferences: body.DietPreferences,
	}, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleCalorieGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.svc.Profiles.CalorieGoal(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}
