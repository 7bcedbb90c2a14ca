package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

type ResultCacheRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewResultCacheRepository(sqlDB *sql.DB, logger zerolog.Logger) *ResultCacheRepository {
	return &ResultCacheRepository{db: sqlDB, logger: logger}
}

// Get returns the cached payload for a tournament if it was stored within ttl.
func (r *ResultCacheRepository) Get(ctx context.Context, tournamentID string, ttl time.Duration) ([]byte, bool, error) {
	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM result_cache WHERE tournament_id = ?`, tournamentID,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	age := time.Since(fetchedAt)
	if age > ttl {
		r.logger.Debug().
			Str("tournament_id", tournamentID).
			Dur("age", age).
			Dur("ttl", ttl).
			Msg("cached result is stale")
		return nil, false, nil
	}
	return payload, true, nil
}

func (r *ResultCacheRepository) Put(ctx context.Context, tournamentID string, payload []byte, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO result_cache (tournament_id, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (tournament_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		tournamentID, payload, fetchedAt.UTC(),
	)
	return err
}

func (r *ResultCacheRepository) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM result_cache WHERE fetched_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
