package game

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAmbiguousRemoval is returned when several differing sessions exist
	// for a day and no session was named.
	ErrAmbiguousRemoval = errors.New("game: ambiguous session removal")

	// ErrSessionNotFound is returned when a named session is not on the day.
	ErrSessionNotFound = errors.New("game: session not found")
)

// AmbiguousRemovalError carries the sessions the caller has to choose from.
type AmbiguousRemovalError struct {
	Day        string
	Candidates []Session
}

func (e *AmbiguousRemovalError) Error() string {
	return fmt.Sprintf("%s on %s: %d candidate sessions", ErrAmbiguousRemoval, e.Day, len(e.Candidates))
}

func (e *AmbiguousRemovalError) Unwrap() error {
	return ErrAmbiguousRemoval
}

// SessionDetail is the optional per-session data of a recorded play.
type SessionDetail struct {
	Score *float64 `json:"score,omitempty"`
	Won   *bool    `json:"won,omitempty"`
}

// Removal describes the effect of RemovePlay.
type Removal struct {
	// Removed is false when the day had no plays and nothing changed.
	Removed bool
	// Session is the session dropped alongside the count, if any.
	Session *Session
}

// RecordPlay adds one play on day. With a detail a session is appended too.
func (g *Game) RecordPlay(day string, detail *SessionDetail, at time.Time) *Session {
	if g.PlayHistory == nil {
		g.PlayHistory = make(map[string]int)
	}
	g.PlayHistory[day]++

	var recorded *Session
	if detail != nil {
		g.Sessions = append(g.Sessions, Session{
			ID:        uuid.NewString(),
			Date:      day,
			Timestamp: at,
			Score:     cloneFloat(detail.Score),
			Won:       cloneBool(detail.Won),
		})
		s := g.Sessions[len(g.Sessions)-1].clone()
		recorded = &s
	}

	g.recompute()
	return recorded
}

// RemovePlay takes one play off day.
//
// A day without plays is left alone. When sessionID is empty the session to
// drop is chosen as follows: none recorded that day drops nothing, a single
// one is dropped, several identical ones drop the most recent, and several
// differing ones fail with an *AmbiguousRemovalError leaving the game as is.
func (g *Game) RemovePlay(day, sessionID string) (Removal, error) {
	if g.PlayHistory[day] <= 0 {
		return Removal{}, nil
	}

	indexes := g.sessionIndexes(day)
	target := -1

	switch {
	case sessionID != "":
		for _, i := range indexes {
			if g.Sessions[i].ID == sessionID {
				target = i
				break
			}
		}
		if target < 0 {
			return Removal{}, fmt.Errorf("%w: %s on %s", ErrSessionNotFound, sessionID, day)
		}
	case len(indexes) == 0:
	case len(indexes) == 1:
		target = indexes[0]
	case g.sameOutcome(indexes):
		target = indexes[len(indexes)-1]
	default:
		candidates := make([]Session, 0, len(indexes))
		for _, i := range indexes {
			candidates = append(candidates, g.Sessions[i].clone())
		}
		return Removal{}, &AmbiguousRemovalError{Day: day, Candidates: candidates}
	}

	result := Removal{Removed: true}
	if target >= 0 {
		s := g.Sessions[target]
		result.Session = &s
		g.Sessions = slices.Delete(g.Sessions, target, target+1)
	}

	if n := g.PlayHistory[day] - 1; n > 0 {
		g.PlayHistory[day] = n
	} else {
		delete(g.PlayHistory, day)
	}

	g.recompute()
	return result, nil
}

// SessionsOn returns copies of the sessions recorded on day, oldest first.
func (g *Game) SessionsOn(day string) []Session {
	indexes := g.sessionIndexes(day)
	sessions := make([]Session, 0, len(indexes))
	for _, i := range indexes {
		sessions = append(sessions, g.Sessions[i].clone())
	}
	return sessions
}

// Normalize drops non-positive day counts and recomputes Plays. Stores call
// it on load so a damaged record still satisfies the ledger invariants.
func (g *Game) Normalize() {
	if g.PlayHistory == nil {
		g.PlayHistory = make(map[string]int)
	}
	if g.Sessions == nil {
		g.Sessions = []Session{}
	}
	g.recompute()
}

func (g *Game) recompute() {
	total := 0
	for day, n := range g.PlayHistory {
		if n <= 0 {
			delete(g.PlayHistory, day)
			continue
		}
		total += n
	}
	g.Plays = total
}

func (g *Game) sessionIndexes(day string) []int {
	var indexes []int
	for i, s := range g.Sessions {
		if s.Date == day {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func (g *Game) sameOutcome(indexes []int) bool {
	first := g.Sessions[indexes[0]]
	for _, i := range indexes[1:] {
		s := g.Sessions[i]
		if !equalFloat(first.Score, s.Score) || !equalBool(first.Won, s.Won) {
			return false
		}
	}
	return true
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
