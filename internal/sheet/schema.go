package sheet

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	teamNameHeaders = []string{"Team Name", "teamName"}
	teamIDHeaders   = []string{"Team ID", "teamId", "team_id", "teamid", "TeamId"}
	periodHeaderRe  = regexp.MustCompile(`^(?:Day|Period) (\d+) (Score|Matches)$`)
)

const (
	totalScoreHeader   = "Total Score"
	totalMatchesHeader = "Total Matches"
)

type periodColumns struct {
	score   int
	matches int
}

// schema is the result of scanning the header row once, before any data row
// is read.
type schema struct {
	name         int
	id           int
	totalScore   int
	totalMatches int
	periods      []int
	periodCols   map[int]periodColumns
}

func detectSchema(header []string) schema {
	s := schema{
		name:         findColumn(header, teamNameHeaders),
		id:           findColumn(header, teamIDHeaders),
		totalScore:   findColumn(header, []string{totalScoreHeader}),
		totalMatches: findColumn(header, []string{totalMatchesHeader}),
		periodCols:   make(map[int]periodColumns),
	}

	for i, h := range header {
		m := periodHeaderRe.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		p, err := strconv.Atoi(m[1])
		if err != nil || p < 1 {
			continue
		}
		cols, ok := s.periodCols[p]
		if !ok {
			cols = periodColumns{score: -1, matches: -1}
		}
		if m[2] == "Score" && cols.score < 0 {
			cols.score = i
		} else if m[2] == "Matches" && cols.matches < 0 {
			cols.matches = i
		}
		s.periodCols[p] = cols
	}

	for p, cols := range s.periodCols {
		// a period is known by its score column, as in exported sheets
		if cols.score < 0 {
			delete(s.periodCols, p)
			continue
		}
		s.periods = append(s.periods, p)
	}
	slices.Sort(s.periods)
	return s
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
	}
	return -1
}
