package engine

import (
	"testing"
	"tournament-results/internal/api"
	"tournament-results/internal/domain"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, name string, score float64) domain.MatchRecord {
	return domain.MatchRecord{TeamID: id, TeamName: name, Score: score}
}

func batch(t *testing.T, strategy domain.IdentityStrategy, period int, records ...domain.MatchRecord) *domain.PeriodLedger {
	t.Helper()
	l, _ := Aggregate(records, strategy, period)
	return l
}

func decode(t *testing.T, body string) *api.TournamentResultResponse {
	t.Helper()
	var resp api.TournamentResultResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return &resp
}

// ---------------------------------------------------------------------------
// Flatten
// ---------------------------------------------------------------------------

func TestFlatten_NestedOrder(t *testing.T) {
	resp := decode(t, `{"status":1,"data":{"tournamentResult":[
		{"result":[{"result":[{"teamId":"a","teamName":"A","score":10},{"teamId":"b","teamName":"B","score":"5"}]}]},
		{"result":[{"result":[{"teamId":"a","teamName":"A","score":null}]},{"result":[{"teamId":"c","teamName":"C","score":3}]}]}
	]}}`)

	got := Flatten("t1", resp)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"a", "b", "a", "c"}, []string{got[0].TeamID, got[1].TeamID, got[2].TeamID, got[3].TeamID})
	assert.Equal(t, 5.0, got[1].Score)
	assert.Equal(t, 0.0, got[2].Score)
	assert.Equal(t, domain.RoundContext{TournamentID: "t1", Round: 1, Group: 1}, got[3].Round)
}

func TestFlatten_MissingShapeYieldsNothing(t *testing.T) {
	bodies := map[string]string{
		"failure status":   `{"status":0,"data":{"tournamentResult":[{"result":[{"result":[{"teamId":"a","score":1}]}]}]}}`,
		"no data":          `{"status":1}`,
		"no result":        `{"status":1,"data":{}}`,
		"result not array": `{"status":1,"data":{"tournamentResult":{"oops":true}}}`,
		"group not array":  `{"status":1,"data":{"tournamentResult":[{"result":"x"}]}}`,
		"data is a string": `{"status":1,"data":"x"}`,
		"data is an array": `{"status":1,"data":[]}`,
		"status as text":   `{"status":"done","data":{"tournamentResult":[{"result":[{"result":[{"teamId":"a","score":1}]}]}]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, Flatten("t", decode(t, body)))
		})
	}
	assert.Empty(t, Flatten("t", nil))
}

func TestFlatten_NumericStringStatusIsSuccess(t *testing.T) {
	got := Flatten("t", decode(t, `{"status":"1","data":{"tournamentResult":[{"result":[{"result":[{"teamId":"a","teamName":"A","score":2}]}]}]}}`))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].TeamID)
}

// ---------------------------------------------------------------------------
// Aggregate
// ---------------------------------------------------------------------------

func TestAggregate_CountsEveryRecord(t *testing.T) {
	records := []domain.MatchRecord{rec("x", "X", 4), rec("x", "X", 0), rec("x", "X", -2.5), rec("x", "X", 10)}
	l, dropped := Aggregate(records, domain.IdentityByID, 1)

	assert.Zero(t, dropped)
	agg, ok := l.Get("x")
	require.True(t, ok)
	assert.Equal(t, 4, agg.Matches)
	assert.Equal(t, 11.5, agg.Score)
}

func TestAggregate_FirstDisplayNameWins(t *testing.T) {
	l, _ := Aggregate([]domain.MatchRecord{rec("", " Team Alpha ", 1), rec("", "TEAM ALPHA", 2), rec("", "team alpha", 3)}, domain.IdentityByName, 0)

	require.Equal(t, 1, l.Len())
	agg := l.Teams()[0]
	assert.Equal(t, " Team Alpha ", agg.DisplayName, "first-seen name is kept untrimmed")
	assert.Equal(t, 6.0, agg.Score)
	assert.Equal(t, 3, agg.Matches)
}

func TestAggregate_DropsRecordsWithoutIdentity(t *testing.T) {
	l, dropped := Aggregate([]domain.MatchRecord{rec("", "A", 1), rec("  ", "B", 1), rec("c", "", 1)}, domain.IdentityByID, 1)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 1, l.Len())
}

func TestAggregate_IDsNeverMergeOnName(t *testing.T) {
	l, _ := Aggregate([]domain.MatchRecord{rec("1", "Same", 1), rec("2", "Same", 1)}, domain.IdentityByID, 1)
	assert.Equal(t, 2, l.Len())
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

func TestMerge_PerDayOrderIndependent(t *testing.T) {
	day1 := batch(t, domain.IdentityByID, 1, rec("a", "A", 10), rec("b", "B", 5))
	day2 := batch(t, domain.IdentityByID, 2, rec("a", "A", 3), rec("c", "C", 8), rec("c", "C", 1))

	l12, err := Merge(nil, day1, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l12, err = Merge(l12, day2, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)

	l21, err := Merge(nil, day2, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l21, err = Merge(l21, day1, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)

	for _, key := range []string{"a", "b", "c"} {
		x, ok := l12.Entry(key)
		require.True(t, ok)
		y, ok := l21.Entry(key)
		require.True(t, ok)
		assert.Equal(t, x.TotalScore, y.TotalScore, key)
		assert.Equal(t, x.TotalMatches, y.TotalMatches, key)
		assert.Equal(t, x.Periods, y.Periods, key)
	}
	a, _ := l12.Entry("a")
	assert.Equal(t, 13.0, a.TotalScore)
	assert.Equal(t, 2, a.TotalMatches)
}

func TestMerge_PerDayBackfill(t *testing.T) {
	l, err := Merge(nil, batch(t, domain.IdentityByID, 1, rec("a", "A", 1)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l, err = Merge(l, batch(t, domain.IdentityByID, 3, rec("b", "B", 2)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l, err = Merge(l, batch(t, domain.IdentityByID, 2, rec("c", "C", 4)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, l.Periods())
	for _, e := range l.Entries() {
		assert.Len(t, e.Periods, 3, e.Key)
	}
	b, _ := l.Entry("b")
	assert.Equal(t, domain.PeriodStats{}, b.Periods[1])
	assert.Equal(t, domain.PeriodStats{Score: 2, Matches: 1}, b.Periods[3])
}

func TestMerge_PerDayRerunOverwritesPeriod(t *testing.T) {
	day := batch(t, domain.IdentityByID, 1, rec("a", "A", 10))
	l, err := Merge(nil, day, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l, err = Merge(l, day, domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)

	a, _ := l.Entry("a")
	assert.Equal(t, 10.0, a.TotalScore)
	assert.Equal(t, 1, a.TotalMatches)
}

func TestMerge_PerDayKeepsOtherPeriods(t *testing.T) {
	l, err := Merge(nil, batch(t, domain.IdentityByID, 1, rec("a", "A", 10), rec("b", "B", 1)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l, err = Merge(l, batch(t, domain.IdentityByID, 2, rec("a", "A", 5)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	l, err = Merge(l, batch(t, domain.IdentityByID, 2, rec("b", "B", 7)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)

	a, _ := l.Entry("a")
	assert.Equal(t, 15.0, a.TotalScore, "a's day 2 entry is left alone when only b is re-fetched")
	b, _ := l.Entry("b")
	assert.Equal(t, 8.0, b.TotalScore)
}

func TestMerge_DoesNotMutatePrevious(t *testing.T) {
	prev, err := Merge(nil, batch(t, domain.IdentityByID, 1, rec("a", "A", 10)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)
	_, err = Merge(prev, batch(t, domain.IdentityByID, 2, rec("a", "A", 5), rec("b", "B", 1)), domain.ModePerDay, domain.IdentityByID)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, prev.Periods())
	assert.Equal(t, 1, prev.Len())
	a, _ := prev.Entry("a")
	assert.Equal(t, 10.0, a.TotalScore)
	assert.Len(t, a.Periods, 1)
}

func TestMerge_Cumulative(t *testing.T) {
	l, err := Merge(nil, batch(t, domain.IdentityByName, 0, rec("", "A", 10), rec("", "B", 5)), domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)
	l, err = Merge(l, batch(t, domain.IdentityByName, 0, rec("", "a ", 7)), domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)

	a, _ := l.Entry("a")
	assert.Equal(t, "A", a.DisplayName)
	assert.Equal(t, 17.0, a.TotalScore)
	assert.Equal(t, 2, a.TotalMatches)
	b, _ := l.Entry("b")
	assert.Equal(t, 5.0, b.TotalScore, "teams absent from the batch keep their totals")
	assert.Equal(t, 1, b.TotalMatches)
}

func TestMerge_CumulativeDoubleCountsRepeatedBatch(t *testing.T) {
	b := batch(t, domain.IdentityByName, 0, rec("", "A", 10))
	l, err := Merge(nil, b, domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)
	l, err = Merge(l, b, domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)

	a, _ := l.Entry("a")
	assert.Equal(t, 20.0, a.TotalScore)
	assert.Equal(t, 2, a.TotalMatches)
}

func TestMerge_Errors(t *testing.T) {
	_, err := Merge(nil, batch(t, domain.IdentityByID, 0, rec("a", "A", 1)), domain.ModePerDay, domain.IdentityByID)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	prev, err := Merge(nil, batch(t, domain.IdentityByName, 0, rec("", "A", 1)), domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)
	_, err = Merge(prev, batch(t, domain.IdentityByID, 1, rec("a", "A", 1)), domain.ModePerDay, domain.IdentityByID)
	assert.ErrorIs(t, err, ErrModeMismatch)
}

// ---------------------------------------------------------------------------
// Rank
// ---------------------------------------------------------------------------

func TestRank_StableOnTies(t *testing.T) {
	l, err := Merge(nil, batch(t, domain.IdentityByName, 0,
		rec("", "First", 5), rec("", "Second", 9), rec("", "Third", 5), rec("", "Fourth", 5), rec("", "Second", 0),
	), domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)

	standings, err := Rank(l, domain.MetricTotalScore)
	require.NoError(t, err)

	var names []string
	for i, s := range standings {
		assert.Equal(t, i+1, s.Rank)
		names = append(names, s.Entry.DisplayName)
	}
	assert.Equal(t, []string{"Second", "First", "Third", "Fourth"}, names)

	standings, err = Rank(l, domain.MetricTotalMatches)
	require.NoError(t, err)
	assert.Equal(t, "Second", standings[0].Entry.DisplayName)
	assert.Equal(t, "First", standings[1].Entry.DisplayName)
}

func TestRank_UnknownMetric(t *testing.T) {
	_, err := Rank(domain.NewMergedLedger(domain.ModeCumulative, domain.IdentityByName), "averageScore")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestEndToEnd_NameBasedCumulative(t *testing.T) {
	var records []domain.MatchRecord
	records = append(records, Flatten("t1", decode(t, `{"status":1,"data":{"tournamentResult":[{"result":[{"result":[{"teamName":"A","score":10},{"teamName":"B","score":5}]}]}]}}`))...)
	records = append(records, Flatten("t2", decode(t, `{"status":1,"data":{"tournamentResult":[{"result":[{"result":[{"teamName":"a ","score":7}]}]}]}}`))...)

	b, dropped := Aggregate(records, domain.IdentityByName, 0)
	require.Zero(t, dropped)
	l, err := Merge(nil, b, domain.ModeCumulative, domain.IdentityByName)
	require.NoError(t, err)
	standings, err := Rank(l, domain.MetricTotalScore)
	require.NoError(t, err)

	require.Len(t, standings, 2)
	assert.Equal(t, "A", standings[0].Entry.DisplayName)
	assert.Equal(t, 17.0, standings[0].Entry.TotalScore)
	assert.Equal(t, 2, standings[0].Entry.TotalMatches)
	assert.Equal(t, "B", standings[1].Entry.DisplayName)
	assert.Equal(t, 5.0, standings[1].Entry.TotalScore)
	assert.Equal(t, 1, standings[1].Entry.TotalMatches)
}
