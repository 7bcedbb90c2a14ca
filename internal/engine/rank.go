package engine

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"tournament-results/internal/domain"
)

var ErrUnknownMetric = errors.New("unknown ranking metric")

func ParseMetric(s string) (domain.Metric, error) {
	switch domain.Metric(s) {
	case "":
		return domain.MetricTotalScore, nil
	case domain.MetricTotalScore, domain.MetricTotalMatches:
		return domain.Metric(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Rank orders the ledger by metric, highest first. Ties keep the order in
// which teams first appeared in the ledger.
func Rank(l *domain.MergedLedger, metric domain.Metric) ([]domain.Standing, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if l == nil {
		return []domain.Standing{}, nil
	}

	entries := l.Entries()
	slices.SortStableFunc(entries, func(a, b *domain.LedgerEntry) int {
		return cmp.Compare(b.Value(metric), a.Value(metric))
	})

	standings := make([]domain.Standing, len(entries))
	for i, e := range entries {
		standings[i] = domain.Standing{Rank: i + 1, Entry: e}
	}
	return standings, nil
}
