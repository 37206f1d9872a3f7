package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid is returned when descriptive fields fail validation.
var ErrInvalid = errors.New("game: invalid details")

// Range is an inclusive integer range where either bound may be unknown.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Tracking controls which optional per-session stats are recorded.
type Tracking struct {
	Score    bool `json:"score"`
	LowScore bool `json:"low_score"`
	Won      bool `json:"won"`
}

// Session is one recorded play of a game on a given day.
type Session struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
	Score     *float64  `json:"score,omitempty"`
	Won       *bool     `json:"won,omitempty"`
}

// Game is one tracked title in a user's collection.
//
// PlayHistory, Sessions and Plays form the ledger and are only changed
// through RecordPlay and RemovePlay.
type Game struct {
	ID          string         `json:"id"`
	Owner       string         `json:"owner"`
	Name        string         `json:"name"`
	Image       string         `json:"image,omitempty"`
	Review      string         `json:"review,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Players     *Range         `json:"players,omitempty"`
	PlayTime    *Range         `json:"play_time,omitempty"`
	Tracking    Tracking       `json:"tracking"`
	PlayHistory map[string]int `json:"play_history"`
	Sessions    []Session      `json:"sessions"`
	Plays       int            `json:"plays"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Details holds the descriptive fields of a game. Editing them never
// touches the ledger.
type Details struct {
	Name     string   `json:"name"`
	Image    string   `json:"image,omitempty"`
	Review   string   `json:"review,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Players  *Range   `json:"players,omitempty"`
	PlayTime *Range   `json:"play_time,omitempty"`
	Tracking Tracking `json:"tracking"`
}

// New creates an empty game owned by owner with a fresh identifier.
func New(owner string, details Details, at time.Time) *Game {
	g := &Game{
		ID:          uuid.NewString(),
		Owner:       owner,
		PlayHistory: make(map[string]int),
		Sessions:    []Session{},
		CreatedAt:   at,
	}
	g.ApplyDetails(details, at)
	return g
}

// Validate checks the descriptive fields.
func (d Details) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if d.Rating != nil && (*d.Rating < 0 || *d.Rating > 10) {
		return fmt.Errorf("%w: rating %.1f outside 0-10", ErrInvalid, *d.Rating)
	}
	if err := d.Players.validate("players"); err != nil {
		return err
	}
	return d.PlayTime.validate("play_time")
}

func (r *Range) validate(field string) error {
	if r == nil {
		return nil
	}
	if r.Min != nil && *r.Min < 0 {
		return fmt.Errorf("%w: %s min is negative", ErrInvalid, field)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%w: %s min %d exceeds max %d", ErrInvalid, field, *r.Min, *r.Max)
	}
	return nil
}

// ApplyDetails replaces the descriptive fields.
func (g *Game) ApplyDetails(d Details, at time.Time) {
	g.Name = strings.TrimSpace(d.Name)
	g.Image = d.Image
	g.Review = d.Review
	g.Rating = cloneFloat(d.Rating)
	g.Players = d.Players.clone()
	g.PlayTime = d.PlayTime.clone()
	g.Tracking = d.Tracking
	g.UpdatedAt = at
}

// Details returns the descriptive fields of the game.
func (g *Game) Details() Details {
	return Details{
		Name:     g.Name,
		Image:    g.Image,
		Review:   g.Review,
		Rating:   cloneFloat(g.Rating),
		Players:  g.Players.clone(),
		PlayTime: g.PlayTime.clone(),
		Tracking: g.Tracking,
	}
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() *Game {
	c := *g
	c.Rating = cloneFloat(g.Rating)
	c.Players = g.Players.clone()
	c.PlayTime = g.PlayTime.clone()
	c.PlayHistory = make(map[string]int, len(g.PlayHistory))
	for day, n := range g.PlayHistory {
		c.PlayHistory[day] = n
	}
	c.Sessions = make([]Session, len(g.Sessions))
	for i, s := range g.Sessions {
		c.Sessions[i] = s.clone()
	}
	return &c
}

func (s Session) clone() Session {
	s.Score = cloneFloat(s.Score)
	s.Won = cloneBool(s.Won)
	return s
}

func (r *Range) clone() *Range {
	if r == nil {
		return nil
	}
	return &Range{Min: cloneInt(r.Min), Max: cloneInt(r.Max)}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
