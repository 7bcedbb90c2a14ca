package constants

import "time"

const (
	ResultCacheTTL = 5 * time.Minute
	GateTokenTTL   = 12 * time.Hour
	SessionTTL     = 24 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 2 * time.Minute
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout      = 5 * time.Second
	SessionSweepInterval = 10 * time.Minute
)

const (
	// upload limit for previous-results workbooks
	MaxImportBytes  = 10 << 20
	RunHistoryLimit = 20
	TournamentPage  = 100
	TodayPageSize   = 50
)

const (
	BattlexoSuccessStatus = 1
	DefaultPeriodLabel    = "Day"
)
