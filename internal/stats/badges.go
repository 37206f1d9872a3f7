package stats

import (
	"fmt"
	"sort"

	"github.com/goodtune/gameshelf/internal/game"
)

// Family groups badges that are evaluated together.
type Family string

const (
	FamilyPlays    Family = "plays"
	FamilyWins     Family = "wins"
	FamilyRank     Family = "rank"
	FamilyChampion Family = "champion"
)

// DefaultMilestones is the threshold ladder used for plays and wins.
var DefaultMilestones = []int{50, 40, 30, 20, 10, 5}

// Badge is a derived achievement. Tier is the milestone reached, the rank
// held, or the number of months won, depending on Family.
type Badge struct {
	Family Family `json:"family"`
	Tier   int    `json:"tier"`
	Label  string `json:"label"`
}

// Milestones configures the play and win ladders.
type Milestones struct {
	Plays []int
	Wins  []int
}

// Badges evaluates every badge family for g against the whole collection.
// Families are independent; only the highest milestone of a ladder is kept.
// Monthly champion badges count months strictly before currentMonth.
func Badges(g *game.Game, all []game.Game, currentMonth string, m Milestones) []Badge {
	badges := make([]Badge, 0, 4)

	if tier, ok := highestMilestone(m.Plays, g.Plays); ok {
		badges = append(badges, Badge{Family: FamilyPlays, Tier: tier, Label: fmt.Sprintf("%d+ plays", tier)})
	}

	if g.Tracking.Won {
		if tier, ok := highestMilestone(m.Wins, Wins(g)); ok {
			badges = append(badges, Badge{Family: FamilyWins, Tier: tier, Label: fmt.Sprintf("%d+ wins", tier)})
		}
	}

	if rank := RankOf(all, g.ID); rank >= 1 && rank <= 3 {
		badges = append(badges, Badge{Family: FamilyRank, Tier: rank, Label: fmt.Sprintf("#%d all time", rank)})
	}

	if months := ChampionMonths(g, all, currentMonth); len(months) > 0 {
		badges = append(badges, Badge{
			Family: FamilyChampion,
			Tier:   len(months),
			Label:  fmt.Sprintf("Monthly champion x%d", len(months)),
		})
	}

	return badges
}

// ChampionMonths lists, oldest first, the completed months before
// currentMonth in which g was the monthly champion.
func ChampionMonths(g *game.Game, all []game.Game, currentMonth string) []string {
	var won []string
	for _, month := range pastMonths(all, currentMonth) {
		if champion, ok := MonthlyChampion(all, month); ok && champion.Game.ID == g.ID {
			won = append(won, month)
		}
	}
	return won
}

func pastMonths(all []game.Game, currentMonth string) []string {
	seen := make(map[string]struct{})
	for i := range all {
		for day := range all[i].PlayHistory {
			month := game.MonthOf(day)
			if month != "" && month < currentMonth {
				seen[month] = struct{}{}
			}
		}
	}
	months := make([]string, 0, len(seen))
	for month := range seen {
		months = append(months, month)
	}
	sort.Strings(months)
	return months
}

func highestMilestone(ladder []int, value int) (int, bool) {
	best, found := 0, false
	for _, threshold := range ladder {
		if threshold > 0 && value >= threshold && threshold > best {
			best, found = threshold, true
		}
	}
	return best, found
}
