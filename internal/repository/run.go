package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"tournament-results/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RunRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRunRepository(sqlDB *sql.DB, logger zerolog.Logger) *RunRepository {
	return &RunRepository{db: sqlDB, logger: logger}
}

// Insert stores a run, assigning an ID and timestamp when missing.
func (r *RunRepository) Insert(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		run.ID = id
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, session_id, mode, period, requested, failed, records, teams, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, string(run.Mode), run.Period, run.Requested, run.Failed, run.Records, run.Teams, run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, mode, period, requested, failed, records, teams, created_at
		FROM runs WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		var (
			run  domain.Run
			mode string
		)
		if err := rows.Scan(&run.ID, &run.SessionID, &mode, &run.Period, &run.Requested, &run.Failed, &run.Records, &run.Teams, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Mode = domain.MergeMode(mode)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
