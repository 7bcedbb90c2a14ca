package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
	"tournament-results/internal/auth"
	"tournament-results/internal/config"
	"tournament-results/internal/constants"
	fxmodules "tournament-results/internal/fx"
	"tournament-results/internal/metrics"
	"tournament-results/internal/repository"
	"tournament-results/internal/server"
	"tournament-results/internal/session"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
		fx.Invoke(runSweeper),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	resultsServer *server.ResultsServer,
	gate *auth.Gate,
	m *metrics.Metrics,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           server.NewRouter(resultsServer, gate, m, db, logger),
		ReadHeaderTimeout: constants.ExternalAPITimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// runSweeper drops expired sessions and stale cached results in the background.
func runSweeper(
	lc fx.Lifecycle,
	sessions *session.Store,
	cache *repository.ResultCacheRepository,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sweep := func(now time.Time) {
		if n := sessions.Expire(now.Add(-constants.SessionTTL)); n > 0 {
			logger.Info().Int("expired", n).Msg("expired sessions")
		}
		dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
		defer dbCancel()
		purged, err := cache.Purge(dbCtx, now.Add(-cfg.CacheTTL))
		if err != nil {
			logger.Warn().Err(err).Msg("failed to purge result cache")
			return
		}
		if purged > 0 {
			logger.Debug().Int64("purged", purged).Msg("purged stale cached results")
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(constants.SessionSweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case now := <-ticker.C:
						sweep(now)
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
