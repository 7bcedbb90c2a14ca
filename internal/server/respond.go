package server

import (
	"errors"
	"net/http"
	"tournament-results/internal/auth"
	"tournament-results/internal/engine"
	"tournament-results/internal/service"
	"tournament-results/internal/session"
	"tournament-results/internal/sheet"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var (
	errBadRequest = errors.New("bad request")
	errUpstream   = errors.New("upstream unavailable")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrUnknownSlot),
		errors.Is(err, engine.ErrInvalidPeriod),
		errors.Is(err, engine.ErrUnknownMetric),
		errors.Is(err, engine.ErrModeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrRunInProgress),
		errors.Is(err, service.ErrNoResults):
		return http.StatusConflict
	case errors.Is(err, sheet.ErrFileRead),
		errors.Is(err, sheet.ErrMissingIdentityColumn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAllFetchesFailed),
		errors.Is(err, errUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
