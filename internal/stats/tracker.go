package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goodtune/gameshelf/internal/game"
)

// MaxHeatLevel caps the heat level of a tracker day.
const MaxHeatLevel = 5

// ErrUnknownSort is returned for an unsupported catalogue ordering.
var ErrUnknownSort = errors.New("stats: unknown sort order")

// Catalogue orderings.
const (
	SortByName   = "name"
	SortByPlays  = "plays"
	SortByRating = "rating"
)

// DayDetail is one game's contribution to a tracker day.
type DayDetail struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
	Plays  int    `json:"plays"`
}

// DayCell is one calendar day of the collection-wide tracker.
type DayCell struct {
	Day     string      `json:"day"`
	Total   int         `json:"total"`
	Level   int         `json:"level"`
	Details []DayDetail `json:"details"`
}

// DailyTracker returns one cell per day of month with the plays across all
// games.
func DailyTracker(games []game.Game, month string) ([]DayCell, error) {
	days, err := game.DaysInMonth(month)
	if err != nil {
		return nil, err
	}

	cells := make([]DayCell, len(days))
	for i, day := range days {
		cell := DayCell{Day: day, Details: []DayDetail{}}
		for j := range games {
			n := games[j].PlayHistory[day]
			if n <= 0 {
				continue
			}
			cell.Total += n
			cell.Details = append(cell.Details, DayDetail{GameID: games[j].ID, Name: games[j].Name, Plays: n})
		}
		cell.Level = min(MaxHeatLevel, cell.Total)
		cells[i] = cell
	}
	return cells, nil
}

// SortCatalogue returns a sorted copy of games: by name ascending, or by
// plays or rating descending.
func SortCatalogue(games []game.Game, by string) ([]game.Game, error) {
	var less func(a, b *game.Game) bool
	switch by {
	case SortByName, "":
		less = func(a, b *game.Game) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByPlays:
		less = func(a, b *game.Game) bool { return a.Plays > b.Plays }
	case SortByRating:
		less = func(a, b *game.Game) bool { return rating(a) > rating(b) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSort, by)
	}

	sorted := make([]game.Game, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool { return less(&sorted[i], &sorted[j]) })
	return sorted, nil
}

func rating(g *game.Game) float64 {
	if g.Rating == nil {
		return 0
	}
	return *g.Rating
}
