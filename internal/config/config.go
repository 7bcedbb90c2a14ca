package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
	"tournament-results/internal/constants"
	"tournament-results/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	BattlexoBaseURL string
	BattlexoGameID  int
	OrganiserSpace  string
	Location        *time.Location
	DBPath          string
	ServerPort      string
	LogLevel        string
	CacheTTL        time.Duration
	GatePassword    string
	GateSigningKey  string
	GateTTL         time.Duration
	PeriodLabel     string
}

func Load(log zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cacheTTL, err := getDuration("CACHE_TTL", constants.ResultCacheTTL)
	if err != nil {
		return nil, err
	}
	gateTTL, err := getDuration("GATE_TTL", constants.GateTokenTTL)
	if err != nil {
		return nil, err
	}

	gameID, err := strconv.Atoi(getEnv("BATTLEXO_GAME_ID", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid BATTLEXO_GAME_ID: %w", err)
	}

	tz := getEnv("TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		BattlexoBaseURL: getEnv("BATTLEXO_BASE_URL", "https://api.battlexo.com"),
		BattlexoGameID:  gameID,
		OrganiserSpace:  getEnv("ORGANISER_SPACE", "DeathMate Esports"),
		Location:        loc,
		DBPath:          getEnv("DB_PATH", "results.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CacheTTL:        cacheTTL,
		GatePassword:    os.Getenv("GATE_PASSWORD"),
		GateSigningKey:  os.Getenv("GATE_SIGNING_KEY"),
		GateTTL:         gateTTL,
		PeriodLabel:     getEnv("PERIOD_LABEL", constants.DefaultPeriodLabel),
	}

	if cfg.GatePassword != "" && cfg.GateSigningKey == "" {
		return nil, fmt.Errorf("GATE_SIGNING_KEY is required when GATE_PASSWORD is set")
	}

	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	log.Info().
		Str("battlexo_base_url", cfg.BattlexoBaseURL).
		Int("battlexo_game_id", cfg.BattlexoGameID).
		Str("organiser_space", cfg.OrganiserSpace).
		Str("timezone", tz).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Bool("gate_enabled", cfg.GatePassword != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
