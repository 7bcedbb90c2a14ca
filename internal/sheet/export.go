package sheet

import (
	"fmt"
	"io"
	"time"
	"tournament-results/internal/domain"

	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

type Table struct {
	Header []string
	Rows   [][]any
}

// BuildTable projects ranked standings into the export layout: rank, team
// name, team ID when teams are keyed by ID, each known period's score and
// matches in per-day mode, then the totals.
func BuildTable(l *domain.MergedLedger, standings []domain.Standing, periodLabel string) Table {
	withID := l.Strategy == domain.IdentityByID
	var periods []int
	if l.Mode == domain.ModePerDay {
		periods = l.Periods()
	}

	header := []string{"Rank", "Team Name"}
	if withID {
		header = append(header, "Team ID")
	}
	for _, p := range periods {
		header = append(header, fmt.Sprintf("%s %d Score", periodLabel, p), fmt.Sprintf("%s %d Matches", periodLabel, p))
	}
	header = append(header, totalScoreHeader, totalMatchesHeader)

	rows := make([][]any, 0, len(standings))
	for _, s := range standings {
		row := []any{s.Rank, s.Entry.DisplayName}
		if withID {
			row = append(row, s.Entry.TeamID)
		}
		for _, p := range periods {
			ps := s.Entry.Periods[p]
			row = append(row, ps.Score, ps.Matches)
		}
		row = append(row, s.Entry.TotalScore, s.Entry.TotalMatches)
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

func Write(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, cellName, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func FileName(now time.Time, mode domain.MergeMode, period int) string {
	day := now.Format(time.DateOnly)
	if mode == domain.ModePerDay && period > 0 {
		return fmt.Sprintf("tournament_results_%s_day%d.xlsx", day, period)
	}
	return fmt.Sprintf("tournament_results_%s.xlsx", day)
}
