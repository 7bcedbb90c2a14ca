package api

import (
	"fmt"
	"regexp"
)

var tournamentLinkRe = regexp.MustCompile(`battlexo\.com/tournaments/([a-f0-9]+)`)

// ExtractTournamentIDs returns tournament IDs in the order their links
// appear. Repeated links are kept.
func ExtractTournamentIDs(text string) []string {
	matches := tournamentLinkRe.FindAllStringSubmatch(text, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

func TournamentLink(id string) string {
	return fmt.Sprintf("https://www.battlexo.com/tournaments/%s", id)
}
