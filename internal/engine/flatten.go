package engine

import (
	"tournament-results/internal/api"
	"tournament-results/internal/constants"
	"tournament-results/internal/domain"
)

// Flatten walks tournament -> round -> group -> match result and emits one
// record per match-result entry, in source order. A response without the
// success status or without the nested collections contributes nothing.
func Flatten(tournamentID string, resp *api.TournamentResultResponse) []domain.MatchRecord {
	if resp == nil || resp.Status != constants.BattlexoSuccessStatus || resp.Data == nil {
		return nil
	}

	var records []domain.MatchRecord
	for ri, round := range resp.Data.TournamentResult {
		for gi, group := range round.Result {
			for _, r := range group.Result {
				records = append(records, domain.MatchRecord{
					TeamID:   string(r.TeamID),
					TeamName: string(r.TeamName),
					Score:    float64(r.Score),
					Round: domain.RoundContext{
						TournamentID: tournamentID,
						Round:        ri,
						Group:        gi,
					},
				})
			}
		}
	}
	return records
}
