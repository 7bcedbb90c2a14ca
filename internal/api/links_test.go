package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTournamentIDs(t *testing.T) {
	text := `Day 1 lobbies:
https://www.battlexo.com/tournaments/64f1a2b3c4d5e6f7a8b9c0d1
battlexo.com/tournaments/abc123?tab=results and again https://battlexo.com/tournaments/abc123
https://example.com/tournaments/ffff`

	assert.Equal(t, []string{"64f1a2b3c4d5e6f7a8b9c0d1", "abc123", "abc123"}, ExtractTournamentIDs(text))
	assert.Empty(t, ExtractTournamentIDs("nothing to see"))
}

func TestTournamentLink(t *testing.T) {
	id := "64f1a2b3c4d5e6f7a8b9c0d1"
	assert.Equal(t, "https://www.battlexo.com/tournaments/"+id, TournamentLink(id))
	assert.Equal(t, []string{id}, ExtractTournamentIDs(TournamentLink(id)))
}
