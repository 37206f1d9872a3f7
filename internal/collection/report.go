package collection

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/stats"
)

// GameStats are the derived figures shown alongside a single game.
type GameStats struct {
	Rank       int           `json:"rank"`
	MonthPlays int           `json:"month_plays"`
	Wins       int           `json:"wins"`
	WinRate    int           `json:"win_rate"`
	HighScore  *float64      `json:"high_score,omitempty"`
	LowScore   *float64      `json:"low_score,omitempty"`
	Badges     []stats.Badge `json:"badges"`
}

// GameView is a game with its derived statistics.
type GameView struct {
	Game  *game.Game `json:"game"`
	Stats GameStats  `json:"stats"`
}

// MonthReport summarises one calendar month of the collection.
type MonthReport struct {
	Month    string          `json:"month"`
	Total    int             `json:"total"`
	Champion *stats.Ranked   `json:"champion,omitempty"`
	Podium   []stats.Ranked  `json:"podium"`
	Rest     []stats.Ranked  `json:"rest"`
	Leaders  []stats.Ranked  `json:"leaders"`
	Tracker  []stats.DayCell `json:"tracker"`
}

// AllTimeReport ranks the whole collection by total plays.
type AllTimeReport struct {
	Total   int            `json:"total"`
	Podium  []stats.Ranked `json:"podium"`
	Rest    []stats.Ranked `json:"rest"`
	Ranking []stats.Ranked `json:"ranking"`
}

// GameDetail returns a game and the statistics that depend on the rest of
// the collection.
func (s *Service) GameDetail(ctx context.Context, owner, id string) (*GameView, error) {
	games, err := s.games.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	var g *game.Game
	for i := range games {
		if games[i].ID == id {
			g = &games[i]
			break
		}
	}
	if g == nil {
		// Fall back to a direct lookup so the store decides what missing means.
		if g, err = s.Get(ctx, owner, id); err != nil {
			return nil, err
		}
		// Stores list by id; rank ties follow that order.
		at, _ := slices.BinarySearchFunc(games, g.ID, func(e game.Game, id string) int {
			return strings.Compare(e.ID, id)
		})
		games = slices.Insert(games, at, *g)
		g = &games[at]
	}

	month := s.CurrentMonth()
	view := &GameView{
		Game: g,
		Stats: GameStats{
			Rank:       stats.RankOf(games, g.ID),
			MonthPlays: stats.MonthPlays(g, month),
			Wins:       stats.Wins(g),
			WinRate:    stats.WinRate(g),
			Badges:     stats.Badges(g, games, month, s.milestones),
		},
	}
	if g.Tracking.Score {
		if v, ok := stats.HighScore(g); ok {
			view.Stats.HighScore = &v
		}
	}
	if g.Tracking.LowScore {
		if v, ok := stats.LowScore(g); ok {
			view.Stats.LowScore = &v
		}
	}
	return view, nil
}

// MonthStats builds the report for month, or the current month when empty.
func (s *Service) MonthStats(ctx context.Context, owner, month string) (*MonthReport, error) {
	month, err := s.resolveMonth(month)
	if err != nil {
		return nil, err
	}

	games, err := s.games.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	tracker, err := stats.DailyTracker(games, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	leaders := stats.MonthlyLeaders(games, month)
	podium, rest := stats.Podium(leaders, 0)
	report := &MonthReport{
		Month:   month,
		Podium:  podium,
		Rest:    rest,
		Leaders: leaders,
		Tracker: tracker,
	}
	for _, cell := range tracker {
		report.Total += cell.Total
	}
	if champion, ok := stats.MonthlyChampion(games, month); ok {
		report.Champion = &champion
	}
	return report, nil
}

// AllTimeStats ranks the collection; limit caps the podium and remainder
// together, 0 meaning no cap.
func (s *Service) AllTimeStats(ctx context.Context, owner string, limit int) (*AllTimeReport, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalid, limit)
	}

	games, err := s.games.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	ranking := stats.AllTimeRank(games)
	podium, rest := stats.Podium(ranking, limit)
	report := &AllTimeReport{Podium: podium, Rest: rest, Ranking: ranking}
	for i := range games {
		report.Total += games[i].Plays
	}
	return report, nil
}
