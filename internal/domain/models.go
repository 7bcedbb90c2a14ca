package domain

import (
	"fmt"
	"slices"
	"time"
)

type IdentityStrategy string

const (
	IdentityByID   IdentityStrategy = "id"
	IdentityByName IdentityStrategy = "name"
)

type MergeMode string

const (
	ModePerDay     MergeMode = "per-day"
	ModeCumulative MergeMode = "cumulative"
)

type Metric string

const (
	MetricTotalScore   Metric = "totalScore"
	MetricTotalMatches Metric = "totalMatches"
)

func ParseIdentityStrategy(s string) (IdentityStrategy, error) {
	switch IdentityStrategy(s) {
	case IdentityByID, IdentityByName:
		return IdentityStrategy(s), nil
	}
	return "", fmt.Errorf("unknown identity strategy %q", s)
}

func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(s) {
	case ModePerDay, ModeCumulative:
		return MergeMode(s), nil
	}
	return "", fmt.Errorf("unknown merge mode %q", s)
}

// DefaultStrategy mirrors how the two dashboards keyed teams: per-day
// sheets carry a Team ID column, cumulative sheets only names.
func (m MergeMode) DefaultStrategy() IdentityStrategy {
	if m == ModePerDay {
		return IdentityByID
	}
	return IdentityByName
}

type RoundContext struct {
	TournamentID string
	Round        int
	Group        int
}

// one per match-result entry in the source
type MatchRecord struct {
	TeamID   string
	TeamName string
	Score    float64
	Round    RoundContext
}

type TeamAggregate struct {
	Key         string
	TeamID      string
	DisplayName string
	Score       float64
	Matches     int
}

type PeriodLedger struct {
	Period int
	order  []string
	teams  map[string]*TeamAggregate
}

func NewPeriodLedger(period int) *PeriodLedger {
	return &PeriodLedger{Period: period, teams: make(map[string]*TeamAggregate)}
}

// Upsert returns the aggregate for key, creating a zero one on first sight.
func (l *PeriodLedger) Upsert(key, teamID, displayName string) *TeamAggregate {
	if agg, ok := l.teams[key]; ok {
		return agg
	}
	agg := &TeamAggregate{Key: key, TeamID: teamID, DisplayName: displayName}
	l.teams[key] = agg
	l.order = append(l.order, key)
	return agg
}

func (l *PeriodLedger) Get(key string) (*TeamAggregate, bool) {
	agg, ok := l.teams[key]
	return agg, ok
}

func (l *PeriodLedger) Len() int { return len(l.order) }

// Teams in first-seen order.
func (l *PeriodLedger) Teams() []*TeamAggregate {
	out := make([]*TeamAggregate, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.teams[key])
	}
	return out
}

type PeriodStats struct {
	Score   float64 `json:"score"`
	Matches int     `json:"matches"`
}

type LedgerEntry struct {
	Key          string              `json:"key"`
	TeamID       string              `json:"teamId,omitempty"`
	DisplayName  string              `json:"teamName"`
	Periods      map[int]PeriodStats `json:"periods,omitempty"`
	TotalScore   float64             `json:"totalScore"`
	TotalMatches int                 `json:"totalMatches"`
}

func (e *LedgerEntry) Value(m Metric) float64 {
	if m == MetricTotalMatches {
		return float64(e.TotalMatches)
	}
	return e.TotalScore
}

func (e *LedgerEntry) clone() *LedgerEntry {
	c := *e
	if e.Periods != nil {
		c.Periods = make(map[int]PeriodStats, len(e.Periods))
		for p, s := range e.Periods {
			c.Periods[p] = s
		}
	}
	return &c
}

type MergedLedger struct {
	Mode     MergeMode
	Strategy IdentityStrategy
	periods  []int
	order    []string
	entries  map[string]*LedgerEntry
}

func NewMergedLedger(mode MergeMode, strategy IdentityStrategy) *MergedLedger {
	return &MergedLedger{Mode: mode, Strategy: strategy, entries: make(map[string]*LedgerEntry)}
}

// Clone is deep; merges work on a clone so a published snapshot never changes.
func (l *MergedLedger) Clone() *MergedLedger {
	c := &MergedLedger{
		Mode:     l.Mode,
		Strategy: l.Strategy,
		periods:  slices.Clone(l.periods),
		order:    slices.Clone(l.order),
		entries:  make(map[string]*LedgerEntry, len(l.entries)),
	}
	for k, e := range l.entries {
		c.entries[k] = e.clone()
	}
	return c
}

func (l *MergedLedger) Entry(key string) (*LedgerEntry, bool) {
	e, ok := l.entries[key]
	return e, ok
}

// Upsert keeps the first display name seen for key.
func (l *MergedLedger) Upsert(key, teamID, displayName string) *LedgerEntry {
	if e, ok := l.entries[key]; ok {
		if e.TeamID == "" {
			e.TeamID = teamID
		}
		return e
	}
	e := &LedgerEntry{Key: key, TeamID: teamID, DisplayName: displayName}
	if l.Mode == ModePerDay {
		e.Periods = make(map[int]PeriodStats)
	}
	l.entries[key] = e
	l.order = append(l.order, key)
	return e
}

// Entries in first-appearance order.
func (l *MergedLedger) Entries() []*LedgerEntry {
	out := make([]*LedgerEntry, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.entries[key])
	}
	return out
}

func (l *MergedLedger) Len() int { return len(l.order) }

// Periods known to the ledger, ascending.
func (l *MergedLedger) Periods() []int { return slices.Clone(l.periods) }

func (l *MergedLedger) AddPeriod(p int) {
	if i, found := slices.BinarySearch(l.periods, p); !found {
		l.periods = slices.Insert(l.periods, i, p)
	}
}

type Standing struct {
	Rank  int          `json:"rank"`
	Entry *LedgerEntry `json:"team"`
}

type Run struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Mode      MergeMode `json:"mode"`
	Period    int       `json:"period,omitempty"`
	Requested int       `json:"requested"`
	Failed    int       `json:"failed"`
	Records   int       `json:"records"`
	Teams     int       `json:"teams"`
	CreatedAt time.Time `json:"createdAt"`
}
