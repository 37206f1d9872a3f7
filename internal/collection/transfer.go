package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/stats"
)

// ExportVersion is the version written into exports.
const ExportVersion = 1

// Export is a complete, portable copy of one collection.
type Export struct {
	Version    int         `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Games      []game.Game `json:"games"`
}

// Export returns the owner's whole collection sorted by name.
func (s *Service) Export(ctx context.Context, owner string) (*Export, error) {
	games, err := s.games.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("export games: %w", err)
	}
	sorted, err := stats.SortCatalogue(games, stats.SortByName)
	if err != nil {
		return nil, err
	}
	return &Export{Version: ExportVersion, ExportedAt: s.clock.Now(), Games: sorted}, nil
}

// Import replaces the owner's collection with the games in data. Every game
// is re-owned, given an id when it has none and normalized, so the stored
// ledgers satisfy their invariants whatever the file held. Nothing is
// written when any game fails validation.
func (s *Service) Import(ctx context.Context, owner string, data Export) (int, error) {
	if data.Version > ExportVersion {
		return 0, fmt.Errorf("%w: unsupported export version %d", ErrInvalid, data.Version)
	}

	now := s.clock.Now()
	seen := make(map[string]struct{}, len(data.Games))
	games := make([]game.Game, 0, len(data.Games))
	for i, imported := range data.Games {
		g := imported.Clone()
		if err := g.Details().Validate(); err != nil {
			return 0, fmt.Errorf("%w: game %d: %w", ErrInvalid, i+1, err)
		}
		if err := validateHistory(g); err != nil {
			return 0, fmt.Errorf("%w: game %d: %w", ErrInvalid, i+1, err)
		}

		g.Owner = owner
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if _, dup := seen[g.ID]; dup {
			return 0, fmt.Errorf("%w: duplicate game id %s", ErrInvalid, g.ID)
		}
		seen[g.ID] = struct{}{}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		if g.UpdatedAt.IsZero() {
			g.UpdatedAt = now
		}
		for j := range g.Sessions {
			if g.Sessions[j].ID == "" {
				g.Sessions[j].ID = uuid.NewString()
			}
		}
		g.Normalize()
		games = append(games, *g)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.games.ReplaceAll(ctx, owner, games); err != nil {
		return 0, fmt.Errorf("import games: %w", err)
	}

	s.logger.Info().Str("owner", owner).Int("games", len(games)).Msg("Collection imported")
	return len(games), nil
}

func validateHistory(g *game.Game) error {
	for day := range g.PlayHistory {
		if _, err := game.ParseDay(day); err != nil {
			return err
		}
	}
	checked := make(map[string]bool)
	for _, session := range g.Sessions {
		if _, err := game.ParseDay(session.Date); err != nil {
			return err
		}
		if checked[session.Date] {
			continue
		}
		checked[session.Date] = true
		// Each session stands for one play of its day.
		if n := len(g.SessionsOn(session.Date)); n > max(g.PlayHistory[session.Date], 0) {
			return fmt.Errorf("%d sessions on %s but %d plays", n, session.Date, g.PlayHistory[session.Date])
		}
	}
	return nil
}
