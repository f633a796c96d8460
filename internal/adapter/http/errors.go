package adapthttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"dietplan/internal/app"
	"dietplan/internal/domain"
)

// statusFor maps service and domain errors to HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidMetrics),
		errors.Is(err, domain.ErrInvalidObservation),
		errors.Is(err, domain.ErrInvalidGeoPoint):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStaleSeries):
		return http.StatusConflict
	case errors.Is(err, app.ErrProfileIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err with the status statusFor picks. Server errors are logged
// and replaced by a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("request_id", requestIDFrom(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if status == http.StatusInternalServerError {
			err = errors.New("internal error")
		}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		err = describe(verrs)
	}
	writeError(w, status, err)
}

// decode parses the JSON body into dst and validates its struct tags.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := parseJSON(r, dst); err != nil {
		return fmt.Errorf("%w: %v", app.ErrInvalidInput, err)
	}
	return s.validate.Struct(dst)
}

func describe(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New("validation: " + strings.Join(msgs, "; "))
}
