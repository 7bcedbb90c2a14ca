package engine

import (
	"errors"
	"fmt"
	"tournament-results/internal/domain"
)

var (
	ErrModeMismatch  = errors.New("ledger mode does not match merge mode")
	ErrInvalidPeriod = errors.New("per-day merge requires a period of 1 or more")
)

// Merge combines a batch with the previous ledger and returns a new ledger.
// prev is never modified; nil means nothing has been merged yet.
//
// In per-day mode only the batch's period is written for the teams it
// contains, every entry is backfilled with zeros for known periods it lacks,
// and totals are recomputed from the breakdown. In cumulative mode the batch
// is added onto the running totals, so merging the same batch twice counts
// it twice.
func Merge(prev *domain.MergedLedger, batch *domain.PeriodLedger, mode domain.MergeMode, strategy domain.IdentityStrategy) (*domain.MergedLedger, error) {
	if err := CheckCompatible(prev, mode, strategy); err != nil {
		return nil, err
	}

	var next *domain.MergedLedger
	if isEmpty(prev) {
		next = domain.NewMergedLedger(mode, strategy)
	} else {
		next = prev.Clone()
	}

	switch mode {
	case domain.ModePerDay:
		if batch.Period < 1 {
			return nil, ErrInvalidPeriod
		}
		mergePeriod(next, batch)
	case domain.ModeCumulative:
		mergeCumulative(next, batch)
	default:
		return nil, fmt.Errorf("unknown merge mode %q", mode)
	}
	return next, nil
}

// CheckCompatible reports whether a batch of the given mode and strategy can
// be merged into prev. An empty ledger accepts anything.
func CheckCompatible(prev *domain.MergedLedger, mode domain.MergeMode, strategy domain.IdentityStrategy) error {
	if isEmpty(prev) {
		return nil
	}
	if prev.Mode != mode || prev.Strategy != strategy {
		return fmt.Errorf("%w: ledger is %s/%s, merge is %s/%s", ErrModeMismatch, prev.Mode, prev.Strategy, mode, strategy)
	}
	return nil
}

func isEmpty(l *domain.MergedLedger) bool {
	return l == nil || (l.Len() == 0 && len(l.Periods()) == 0)
}

func mergePeriod(l *domain.MergedLedger, batch *domain.PeriodLedger) {
	l.AddPeriod(batch.Period)
	for _, agg := range batch.Teams() {
		e := l.Upsert(agg.Key, agg.TeamID, agg.DisplayName)
		e.Periods[batch.Period] = domain.PeriodStats{Score: agg.Score, Matches: agg.Matches}
	}
	Backfill(l)
	RecomputeTotals(l)
}

func mergeCumulative(l *domain.MergedLedger, batch *domain.PeriodLedger) {
	for _, agg := range batch.Teams() {
		e := l.Upsert(agg.Key, agg.TeamID, agg.DisplayName)
		e.TotalScore += agg.Score
		e.TotalMatches += agg.Matches
	}
}

// Backfill gives every entry a zero row for each known period it is missing.
func Backfill(l *domain.MergedLedger) {
	periods := l.Periods()
	for _, e := range l.Entries() {
		if e.Periods == nil {
			e.Periods = make(map[int]domain.PeriodStats, len(periods))
		}
		for _, p := range periods {
			if _, ok := e.Periods[p]; !ok {
				e.Periods[p] = domain.PeriodStats{}
			}
		}
	}
}

// RecomputeTotals rebuilds totals from the per-period breakdown over the
// known periods only.
func RecomputeTotals(l *domain.MergedLedger) {
	periods := l.Periods()
	for _, e := range l.Entries() {
		e.TotalScore = 0
		e.TotalMatches = 0
		for _, p := range periods {
			s := e.Periods[p]
			e.TotalScore += s.Score
			e.TotalMatches += s.Matches
		}
	}
}
