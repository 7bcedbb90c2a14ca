package server

import (
	"context"
	"net/http"
	"tournament-results/internal/auth"
	"tournament-results/internal/constants"
	"tournament-results/internal/metrics"
	"tournament-results/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter builds the full HTTP handler: API routes behind the view gate,
// plus health and metrics endpoints left open.
func NewRouter(results *ResultsServer, gate *auth.Gate, m *metrics.Metrics, db Pinger, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", health(db)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	results.Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	})

	var h http.Handler = r
	h = gate.Middleware("/api/v1/login", "/healthz", "/metrics")(h)
	h = c.Handler(h)
	h = middleware.Recover(h)
	h = middleware.RequestID(logger)(h)
	return h
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
