package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"tournament-results/internal/domain"
	"tournament-results/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinksCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"https://www.battlexo.com/tournaments/abc123\nnoise\nhttps://www.battlexo.com/tournaments/def456\n",
	), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"links", path})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "abc123\ndef456\n", out.String())
}

func TestRunCommand_RejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"run", "--mode", "weekly"},
		{"run", "--identity", "email"},
		{"run", "--sort", "kills"},
		{"run", "--links-file", filepath.Join(t.TempDir(), "missing.txt")},
	} {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), args)
	}
}

func TestPrintStandings(t *testing.T) {
	batch, _ := engine.Aggregate([]domain.MatchRecord{
		{TeamID: "a1", TeamName: "Alpha", Score: 10},
		{TeamID: "b2", TeamName: "Bravo", Score: 12},
	}, domain.IdentityByID, 1)
	ledger, err := engine.Merge(nil, batch, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	standings, err := engine.Rank(ledger, domain.MetricTotalScore)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printStandings(&out, ledger, standings, "Day"))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "Day 1 Score")
	assert.Contains(t, string(lines[1]), "Bravo")
	assert.Contains(t, string(lines[2]), "Alpha")
}
