package fx

import (
	"tournament-results/internal/api"
	"tournament-results/internal/auth"
	"tournament-results/internal/config"
	"tournament-results/internal/database"
	"tournament-results/internal/logger"
	"tournament-results/internal/metrics"
	"tournament-results/internal/repository"
	"tournament-results/internal/server"
	"tournament-results/internal/service"
	"tournament-results/internal/session"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideResultService(
	client *api.BattlexoClient,
	cache *repository.ResultCacheRepository,
	runs *repository.RunRepository,
	m *metrics.Metrics,
	cfg *config.Config,
	logger zerolog.Logger,
) *service.ResultService {
	return service.NewResultService(client, cache, runs, m, service.ResultOptions{
		CacheTTL:    cfg.CacheTTL,
		PeriodLabel: cfg.PeriodLabel,
	}, logger)
}

func ProvideTournamentService(client *api.BattlexoClient, cfg *config.Config, logger zerolog.Logger) *service.TournamentService {
	return service.NewTournamentService(client, cfg.OrganiserSpace, cfg.Location, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(metrics.New),
	// repos
	fx.Provide(repository.NewResultCacheRepository),
	fx.Provide(repository.NewRunRepository),
	// api client
	fx.Provide(api.NewBattlexoClient),
	// svc
	fx.Provide(session.NewStore),
	fx.Provide(auth.NewGate),
	fx.Provide(ProvideResultService),
	fx.Provide(ProvideTournamentService),
	// server
	fx.Provide(server.NewResultsServer),
)
