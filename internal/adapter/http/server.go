// Package adapthttp is the driving HTTP adapter. It routes requests to the
// application services and maps their errors to status codes.
package adapthttp

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"dietplan/internal/app"
	"dietplan/internal/metrics"
)

// Services bundles the application services the adapter drives.
type Services struct {
	Profiles  *app.ProfileService
	History   *app.HistoryService
	Meals     *app.MealService
	Places    *app.PlaceService
	Dashboard *app.DashboardService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc      Services
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	validate *validator.Validate
	ping     func(context.Context) error
	now      func() time.Time
}

// New creates a Server wired to the given application services. gatherer
// backs /metrics and may be nil to leave the endpoint out.
func New(svc Services, rec metrics.Recorder, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		svc:      svc,
		metrics:  rec,
		gatherer: gatherer,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WithPing makes /api/health report the storage connection.
func (s *Server) WithPing(ping func(context.Context) error) *Server {
	s.ping = ping
	return s
}

// WithClock replaces the time source. Used by tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logging)
	r.Use(s.recoverer)
	r.Use(s.instrument)
	r.Use(withNoCache)

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.identify)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)
			r.Get("/profile/calorie-goal", s.handleCalorieGoal)

			r.Route("/history/{kind}", func(r chi.Router) {
				r.Post("/", s.handleRecordObservation)
				r.Get("/", s.handleGetSeries)
				r.Get("/summary", s.handleSeriesSummary)
				r.Get("/trend", s.handleSeriesTrend)
			})

			r.Get("/dashboard", s.handleDashboard)

			r.Route("/meals", func(r chi.Router) {
				r.Post("/", s.handleCreateMeal)
				r.Get("/", s.handleListMeals)
				r.Put("/{id}", s.handleUpdateMeal)
				r.Delete("/{id}", s.handleDeleteMeal)
			})

			r.Get("/places", s.handleNearbyPlaces)
			r.Get("/places/{id}", s.handlePlaceDetails)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
