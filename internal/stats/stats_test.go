package stats

import (
	"testing"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHistory(id string, history map[string]int) game.Game {
	g := game.Game{ID: id, Name: id, PlayHistory: history}
	g.Normalize()
	return g
}

func withSessions(outcomes ...bool) game.Game {
	g := game.Game{ID: "g", Name: "g", Tracking: game.Tracking{Won: true}}
	for _, o := range outcomes {
		won := o
		g.RecordPlay("2024-01-01", &game.SessionDetail{Won: &won}, testTime)
	}
	return g
}

func TestTotalPlaysInRange(t *testing.T) {
	g := withHistory("a", map[string]int{"2024-01-10": 2, "2024-02-01": 1})

	assert.Equal(t, 2, TotalPlaysInRange(&g, "2024-01-01", "2024-02-01"))
	assert.Equal(t, 1, MonthPlays(&g, "2024-02"))
	assert.Equal(t, 0, MonthPlays(&g, "bogus"))
}

func TestAllTimeRank(t *testing.T) {
	games := []game.Game{
		withHistory("A", map[string]int{"2024-01-01": 10}),
		withHistory("B", map[string]int{"2024-01-01": 25}),
	}

	ranked := AllTimeRank(games)

	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].Game.ID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "A", ranked[1].Game.ID)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 2, RankOf(games, "A"))
}

func TestRankOfUnplayedGame(t *testing.T) {
	games := []game.Game{
		withHistory("A", map[string]int{"2024-01-01": 1}),
		withHistory("B", nil),
	}

	assert.Equal(t, 0, RankOf(games, "B"))
	assert.Equal(t, 0, RankOf(games, "missing"))
}

func TestWinRate(t *testing.T) {
	g := withSessions(true, true, false, true, false)
	assert.Equal(t, 60, WinRate(&g))

	empty := game.Game{}
	assert.Equal(t, 0, WinRate(&empty))

	twoThirds := withSessions(true, true, false)
	assert.Equal(t, 67, WinRate(&twoThirds))
}

func TestHighAndLowScore(t *testing.T) {
	g := game.Game{ID: "g"}
	_, ok := HighScore(&g)
	assert.False(t, ok)

	for _, v := range []float64{12, -3, 40} {
		s := v
		g.RecordPlay("2024-01-01", &game.SessionDetail{Score: &s}, testTime)
	}
	g.RecordPlay("2024-01-01", &game.SessionDetail{}, testTime)

	high, ok := HighScore(&g)
	require.True(t, ok)
	assert.Equal(t, 40.0, high)

	low, ok := LowScore(&g)
	require.True(t, ok)
	assert.Equal(t, -3.0, low)
}

func TestMonthlyLeadersStableOnTies(t *testing.T) {
	games := []game.Game{
		withHistory("c", map[string]int{"2024-05-02": 2}),
		withHistory("a", map[string]int{"2024-05-03": 2}),
		withHistory("b", map[string]int{"2024-05-09": 5, "2024-06-01": 9}),
	}

	leaders := MonthlyLeaders(games, "2024-05")

	require.Len(t, leaders, 3)
	assert.Equal(t, []string{"b", "c", "a"}, ids(leaders))
	assert.Equal(t, 5, leaders[0].Value)
}

func TestMonthlyChampionTieGoesToLowestID(t *testing.T) {
	games := []game.Game{
		withHistory("zeta", map[string]int{"2024-05-02": 3}),
		withHistory("alpha", map[string]int{"2024-05-20": 3}),
	}

	champion, ok := MonthlyChampion(games, "2024-05")
	require.True(t, ok)
	assert.Equal(t, "alpha", champion.Game.ID)

	_, ok = MonthlyChampion(games, "2024-04")
	assert.False(t, ok)
}

func TestPodium(t *testing.T) {
	games := []game.Game{
		withHistory("a", map[string]int{"2024-01-01": 5}),
		withHistory("b", map[string]int{"2024-01-01": 4}),
		withHistory("c", map[string]int{"2024-01-01": 3}),
		withHistory("d", map[string]int{"2024-01-01": 2}),
		withHistory("e", map[string]int{"2024-01-01": 1}),
		withHistory("f", nil),
	}

	top, rest := Podium(AllTimeRank(games), 4)

	assert.Equal(t, []string{"a", "b", "c"}, ids(top))
	assert.Equal(t, []string{"d"}, ids(rest))

	top, rest = Podium(AllTimeRank(games[4:]), 10)
	assert.Equal(t, []string{"e"}, ids(top))
	assert.Empty(t, rest)
}

func TestRankingDeterminism(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ranking the same collection twice gives the same order", prop.ForAll(
		func(counts []int) bool {
			games := make([]game.Game, len(counts))
			for i, n := range counts {
				history := map[string]int{}
				if n > 0 {
					history["2024-01-01"] = n
				}
				games[i] = withHistory(string(rune('a'+i%26))+string(rune('0'+i/26)), history)
			}

			first := AllTimeRank(games)
			second := AllTimeRank(games)
			for i := range first {
				if first[i].Game.ID != second[i].Game.ID || first[i].Rank != i+1 {
					return false
				}
				if i > 0 && first[i-1].Value < first[i].Value {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func ids(ranked []Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Game.ID
	}
	return out
}
