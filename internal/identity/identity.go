package identity

import (
	"strings"
	"tournament-results/internal/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims, applies NFKC and case-folds so that cosmetic
// variants of a team name compare equal.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	// a Caser carries state, so one per call
	return cases.Fold().String(norm.NFKC.String(name))
}

// Key returns the canonical identity key for a team. IDs are opaque and
// compared exactly. ok is false when the record carries no usable identity.
func Key(strategy domain.IdentityStrategy, teamID, teamName string) (key string, ok bool) {
	switch strategy {
	case domain.IdentityByID:
		if strings.TrimSpace(teamID) == "" {
			return "", false
		}
		return teamID, true
	default:
		key = NormalizeName(teamName)
		return key, key != ""
	}
}
