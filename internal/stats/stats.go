// Package stats derives read-only aggregates from a collection of games.
//
// Every function is pure and recomputes from the ledgers it is given; games
// with an empty history count as zero everywhere.
package stats

import (
	"math"
	"sort"

	"github.com/goodtune/gameshelf/internal/game"
)

// Ranked is a game with the value it was ranked by and its 1-based rank.
type Ranked struct {
	Game  *game.Game `json:"game"`
	Value int        `json:"value"`
	Rank  int        `json:"rank"`
}

// TotalPlaysInRange sums the plays on days in [start, end).
func TotalPlaysInRange(g *game.Game, start, end string) int {
	total := 0
	for day, n := range g.PlayHistory {
		// Zero-padded day keys order lexicographically by date.
		if day >= start && day < end && n > 0 {
			total += n
		}
	}
	return total
}

// MonthPlays returns the plays of g within month (YYYY-MM).
func MonthPlays(g *game.Game, month string) int {
	start, end, err := game.MonthRange(month)
	if err != nil {
		return 0
	}
	return TotalPlaysInRange(g, start, end)
}

// MonthlyLeaders ranks every game by its plays in month, most first.
// Equal values keep their input order.
func MonthlyLeaders(games []game.Game, month string) []Ranked {
	return rank(games, func(g *game.Game) int { return MonthPlays(g, month) })
}

// MonthlyChampion returns the game with the most plays in month. Ties go to
// the lowest game ID. There is no champion for a month without plays.
func MonthlyChampion(games []game.Game, month string) (Ranked, bool) {
	var champion Ranked
	found := false
	for i := range games {
		g := &games[i]
		plays := MonthPlays(g, month)
		if plays == 0 {
			continue
		}
		if !found || plays > champion.Value || (plays == champion.Value && g.ID < champion.Game.ID) {
			champion = Ranked{Game: g, Value: plays, Rank: 1}
			found = true
		}
	}
	return champion, found
}

// AllTimeRank ranks every game by total plays, most first. Equal values keep
// their input order.
func AllTimeRank(games []game.Game) []Ranked {
	return rank(games, func(g *game.Game) int { return g.Plays })
}

// RankOf returns the all-time rank of the game with id, or 0 when the game
// is missing or has never been played.
func RankOf(games []game.Game, id string) int {
	for _, r := range AllTimeRank(games) {
		if r.Game.ID == id {
			if r.Value <= 0 {
				return 0
			}
			return r.Rank
		}
	}
	return 0
}

// Podium splits a ranking into the top three and up to limit entries in
// total. Entries with no plays are left out.
func Podium(ranked []Ranked, limit int) (top []Ranked, rest []Ranked) {
	played := make([]Ranked, 0, len(ranked))
	for _, r := range ranked {
		if r.Value > 0 {
			played = append(played, r)
		}
	}
	if limit > 0 && len(played) > limit {
		played = played[:limit]
	}
	if len(played) <= 3 {
		return played, []Ranked{}
	}
	return played[:3], played[3:]
}

func rank(games []game.Game, value func(*game.Game) int) []Ranked {
	ranked := make([]Ranked, len(games))
	for i := range games {
		ranked[i] = Ranked{Game: &games[i], Value: value(&games[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Wins counts sessions recorded as won.
func Wins(g *game.Game) int {
	wins, _ := outcomes(g)
	return wins
}

// WinRate returns the percentage of decided sessions that were won, rounded
// to the nearest integer, or 0 when no session has an outcome.
func WinRate(g *game.Game) int {
	wins, losses := outcomes(g)
	if wins+losses == 0 {
		return 0
	}
	return int(math.Round(100 * float64(wins) / float64(wins+losses)))
}

func outcomes(g *game.Game) (wins, losses int) {
	for _, s := range g.Sessions {
		if s.Won == nil {
			continue
		}
		if *s.Won {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses
}

// HighScore returns the best recorded score.
func HighScore(g *game.Game) (float64, bool) {
	return extremeScore(g, func(a, b float64) bool { return a > b })
}

// LowScore returns the lowest recorded score.
func LowScore(g *game.Game) (float64, bool) {
	return extremeScore(g, func(a, b float64) bool { return a < b })
}

func extremeScore(g *game.Game, better func(a, b float64) bool) (float64, bool) {
	var best float64
	found := false
	for _, s := range g.Sessions {
		if s.Score == nil {
			continue
		}
		if !found || better(*s.Score, best) {
			best = *s.Score
			found = true
		}
	}
	return best, found
}
