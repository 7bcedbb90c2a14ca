package sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"tournament-results/internal/domain"
	"tournament-results/internal/engine"
	"tournament-results/internal/identity"

	"github.com/xuri/excelize/v2"
)

var (
	ErrFileRead              = errors.New("failed to read results workbook")
	ErrMissingIdentityColumn = errors.New("results workbook has no team identity column")
)

type ImportOptions struct {
	Mode     domain.MergeMode
	Strategy domain.IdentityStrategy
}

// ReadLedger reads the first sheet of a previously exported workbook into a
// ledger. Per-day sheets contribute their period columns and totals are
// recomputed from them; cumulative sheets contribute their total columns.
// Rows without a team identity are skipped.
func ReadLedger(r io.Reader, opts ImportOptions) (*domain.MergedLedger, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrFileRead)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileRead, err)
	}

	ledger := domain.NewMergedLedger(opts.Mode, opts.Strategy)
	if len(rows) == 0 {
		return ledger, nil
	}

	s := detectSchema(rows[0])
	if (opts.Strategy == domain.IdentityByID && s.id < 0) || (opts.Strategy == domain.IdentityByName && s.name < 0) {
		return nil, fmt.Errorf("%w: need %s column", ErrMissingIdentityColumn, opts.Strategy)
	}

	if opts.Mode == domain.ModePerDay {
		for _, p := range s.periods {
			ledger.AddPeriod(p)
		}
	}

	for _, row := range rows[1:] {
		teamID := cell(row, s.id)
		teamName := cell(row, s.name)
		key, ok := identity.Key(opts.Strategy, teamID, teamName)
		if !ok {
			continue
		}

		e := ledger.Upsert(key, teamID, teamName)
		switch opts.Mode {
		case domain.ModePerDay:
			for _, p := range s.periods {
				cols := s.periodCols[p]
				e.Periods[p] = domain.PeriodStats{
					Score:   number(cell(row, cols.score)),
					Matches: int(number(cell(row, cols.matches))),
				}
			}
		default:
			e.TotalScore = number(cell(row, s.totalScore))
			e.TotalMatches = int(number(cell(row, s.totalMatches)))
		}
	}

	if opts.Mode == domain.ModePerDay {
		engine.Backfill(ledger)
		engine.RecomputeTotals(ledger)
	}
	return ledger, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// number treats blank and non-numeric cells as zero.
func number(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
