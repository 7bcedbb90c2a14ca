package engine

import (
	"tournament-results/internal/domain"
	"tournament-results/internal/identity"
)

// Aggregate folds records into per-team totals for one batch. Every record
// counts as one match whatever its score. A team keeps the raw name of the
// first record seen for it. Records without an identity are skipped and
// counted in dropped.
func Aggregate(records []domain.MatchRecord, strategy domain.IdentityStrategy, period int) (ledger *domain.PeriodLedger, dropped int) {
	ledger = domain.NewPeriodLedger(period)
	for _, rec := range records {
		key, ok := identity.Key(strategy, rec.TeamID, rec.TeamName)
		if !ok {
			dropped++
			continue
		}
		agg := ledger.Upsert(key, rec.TeamID, rec.TeamName)
		agg.Score += rec.Score
		agg.Matches++
	}
	return ledger, dropped
}
