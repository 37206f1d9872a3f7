// Package collection owns a user's game collection: it loads the latest
// state from the store, applies ledger and descriptive changes to a copy,
// writes the copy back and only then hands it to the caller.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/metrics"
	"github.com/goodtune/gameshelf/internal/stats"
	"github.com/goodtune/gameshelf/internal/storage"
)

// ErrInvalid is returned for malformed requests: bad details, day or month
// keys, or sort orders.
var ErrInvalid = errors.New("collection: invalid request")

// Options configures a Service.
type Options struct {
	Clock      Clock
	Location   *time.Location // decides which calendar day "today" is
	Milestones stats.Milestones
	Logger     zerolog.Logger
}

// Service applies collection operations for any owner.
type Service struct {
	games      storage.GameStore
	clock      Clock
	location   *time.Location
	milestones stats.Milestones
	logger     zerolog.Logger

	// mu serializes mutations so that load, change and write back do not
	// interleave within this process.
	mu sync.Mutex
}

// NewService creates a collection service on top of games.
func NewService(games storage.GameStore, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.Milestones.Plays) == 0 {
		opts.Milestones.Plays = stats.DefaultMilestones
	}
	if len(opts.Milestones.Wins) == 0 {
		opts.Milestones.Wins = stats.DefaultMilestones
	}
	return &Service{
		games:      games,
		clock:      opts.Clock,
		location:   opts.Location,
		milestones: opts.Milestones,
		logger:     opts.Logger.With().Str("component", "collection").Logger(),
	}
}

// Today returns the day key of the current date in the configured timezone.
func (s *Service) Today() string {
	return game.DayKey(s.clock.Now().In(s.location))
}

// CurrentMonth returns the month key of the current date.
func (s *Service) CurrentMonth() string {
	return game.MonthKey(s.clock.Now().In(s.location))
}

// List returns the owner's games in catalogue order.
func (s *Service) List(ctx context.Context, owner string, sortBy string) ([]game.Game, error) {
	games, err := s.games.List(ctx, owner)
	if err != nil {
		return []game.Game{}, fmt.Errorf("list games: %w", err)
	}
	sorted, err := stats.SortCatalogue(games, sortBy)
	if err != nil {
		return []game.Game{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return sorted, nil
}

// Get returns a single game.
func (s *Service) Get(ctx context.Context, owner, id string) (*game.Game, error) {
	g, err := s.games.Get(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	return g, nil
}

// Create adds a new, unplayed game to the owner's collection.
func (s *Service) Create(ctx context.Context, owner string, details game.Details) (*game.Game, error) {
	if err := details.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := game.New(owner, details, s.clock.Now())
	if err := s.games.Upsert(ctx, *g); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s.logger.Info().Str("owner", owner).Str("game_id", g.ID).Str("name", g.Name).Msg("Game created")
	return g, nil
}

// Update replaces the descriptive fields of a game. The ledger is untouched.
func (s *Service) Update(ctx context.Context, owner, id string, details game.Details) (*game.Game, error) {
	if err := details.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return s.mutate(ctx, owner, id, func(g *game.Game) error {
		g.ApplyDetails(details, s.clock.Now())
		return nil
	})
}

// Delete removes a game permanently.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.games.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	s.logger.Info().Str("owner", owner).Str("game_id", id).Msg("Game deleted")
	return nil
}

// PlayRequest describes one play to record. An empty Day means today.
// Score and Won are kept only when the game tracks them.
type PlayRequest struct {
	Day   string   `json:"date,omitempty"`
	Score *float64 `json:"score,omitempty"`
	Won   *bool    `json:"won,omitempty"`
}

// RecordPlay adds a play to a game and returns the stored game together with
// the session that was appended, if any.
func (s *Service) RecordPlay(ctx context.Context, owner, id string, req PlayRequest) (*game.Game, *game.Session, error) {
	day, err := s.resolveDay(req.Day)
	if err != nil {
		return nil, nil, err
	}

	var session *game.Session
	g, err := s.mutate(ctx, owner, id, func(g *game.Game) error {
		session = g.RecordPlay(day, sessionDetail(g.Tracking, req), s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.PlaysRecorded.Inc()
	s.logger.Info().
		Str("owner", owner).
		Str("game_id", id).
		Str("day", day).
		Int("plays", g.Plays).
		Bool("session", session != nil).
		Msg("Play recorded")
	return g, session, nil
}

// RemovePlay takes one play off a game on day. sessionID names the session
// to drop when several differing sessions exist that day. A day without
// plays is a no-op and reports Removed false.
func (s *Service) RemovePlay(ctx context.Context, owner, id, day, sessionID string) (*game.Game, game.Removal, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, game.Removal{}, err
	}

	var removal game.Removal
	g, err := s.mutate(ctx, owner, id, func(g *game.Game) error {
		var err error
		removal, err = g.RemovePlay(day, sessionID)
		if err == nil && !removal.Removed {
			return errUnchanged
		}
		return err
	})

	switch {
	case errors.Is(err, game.ErrAmbiguousRemoval):
		metrics.PlaysRemoved.WithLabelValues("ambiguous").Inc()
		return nil, game.Removal{}, err
	case errors.Is(err, game.ErrSessionNotFound):
		metrics.PlaysRemoved.WithLabelValues("not_found").Inc()
		return nil, game.Removal{}, err
	case err != nil:
		return nil, game.Removal{}, err
	}

	if !removal.Removed {
		metrics.PlaysRemoved.WithLabelValues("noop").Inc()
		return g, removal, nil
	}

	metrics.PlaysRemoved.WithLabelValues("removed").Inc()
	s.logger.Info().
		Str("owner", owner).
		Str("game_id", id).
		Str("day", day).
		Int("plays", g.Plays).
		Msg("Play removed")
	return g, removal, nil
}

// errUnchanged tells mutate that nothing needs writing back.
var errUnchanged = errors.New("unchanged")

// mutate loads the stored game past any cache, applies change to a copy, persists the copy
// and returns it. When the write fails the caller gets the error and no
// game, so nothing observes a state the store does not hold.
func (s *Service) mutate(ctx context.Context, owner, id string, change func(*game.Game) error) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := storage.Latest(ctx, s.games, owner, id)
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}

	next := current.Clone()
	if err := change(next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, nil
		}
		return nil, err
	}

	if err := s.games.Upsert(ctx, *next); err != nil {
		s.logger.Error().Err(err).Str("owner", owner).Str("game_id", id).Msg("Failed to save game")
		return nil, fmt.Errorf("save game %s: %w", id, err)
	}
	return next, nil
}

func (s *Service) resolveDay(day string) (string, error) {
	if day == "" {
		return s.Today(), nil
	}
	if _, err := game.ParseDay(day); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return day, nil
}

func (s *Service) resolveMonth(month string) (string, error) {
	if month == "" {
		return s.CurrentMonth(), nil
	}
	if _, err := game.ParseMonth(month); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return month, nil
}

// sessionDetail keeps only the fields the game tracks. Without any tracked
// field the play is recorded as a bare count.
func sessionDetail(t game.Tracking, req PlayRequest) *game.SessionDetail {
	var detail game.SessionDetail
	if req.Score != nil && (t.Score || t.LowScore) {
		detail.Score = req.Score
	}
	if req.Won != nil && t.Won {
		detail.Won = req.Won
	}
	if detail.Score == nil && detail.Won == nil {
		return nil
	}
	return &detail
}
