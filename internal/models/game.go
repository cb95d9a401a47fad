package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// GameState represents where a game is in its lifecycle
type GameState string

const (
	// GameStateScheduled indicates a game that has not started yet
	GameStateScheduled GameState = "scheduled"

	// GameStateActive indicates a game that is imminent or in progress
	GameStateActive GameState = "active"

	// GameStateFinished indicates a game whose play window has passed
	GameStateFinished GameState = "finished"

	// GameStateDead is terminal; the scheduler evicts dead games
	GameStateDead GameState = "dead"
)

var (
	// ErrPlayerAlreadyPresent is returned when a player joins a game twice
	ErrPlayerAlreadyPresent = errors.New("player already in game")

	// ErrGameFull is returned when a game is at maximum capacity
	ErrGameFull = errors.New("game is at maximum capacity")
)

// MessageRef identifies the chat message announcing a game. It is the game's
// stable external key and the join point for reaction-based roster changes.
type MessageRef struct {
	// ChannelID is the channel the announcement was posted to
	ChannelID string

	// MessageID is the transport's identifier for the announcement
	MessageID string
}

// IsZero reports whether the ref has been set
func (r MessageRef) IsZero() bool {
	return r.MessageID == ""
}

// Game represents one scheduled session
type Game struct {
	// ID is the unique identifier for the game
	ID string

	// Category is the scheduling pool the game belongs to, derived from the
	// originating channel. Games in different categories never conflict.
	Category string

	// ChannelID is the channel the game was scheduled from
	ChannelID string

	// When is the scheduled start, anchored to the current day
	When time.Time

	// PlayTime is the duration in minutes
	PlayTime int

	// Description is the free text left over after parsing
	Description string

	// Mode is an optional game mode, e.g. "compet"
	Mode string

	// CreatorID is the user who scheduled the game
	CreatorID string

	// Players holds user IDs in join order, no duplicates
	Players []string

	// MaxPlayers is the roster capacity
	MaxPlayers int

	// State is the current lifecycle state
	State GameState

	// Message references the announcement message
	Message MessageRef

	// MessageText is the announcement's rendered text
	MessageText string

	// CreatedAt is when the game was announced; dead-state timing is
	// measured from here
	CreatedAt time.Time
}

// EndTime is the exclusive end of the play window
func (g *Game) EndTime() time.Time {
	return g.When.Add(time.Duration(g.PlayTime) * time.Minute)
}

// Contains reports whether t falls within [when, when+playTime). An
// exclusive start is used when testing a candidate end time against this
// game's start, so back-to-back games are allowed.
func (g *Game) Contains(t time.Time, includeStart bool) bool {
	if includeStart {
		return !t.Before(g.When) && t.Before(g.EndTime())
	}
	return t.After(g.When) && t.Before(g.EndTime())
}

// HasPlayer reports roster membership
func (g *Game) HasPlayer(user string) bool {
	for _, p := range g.Players {
		if p == user {
			return true
		}
	}
	return false
}

// AddPlayer appends a player, preserving join order
func (g *Game) AddPlayer(user string) error {
	if g.HasPlayer(user) {
		return ErrPlayerAlreadyPresent
	}
	if len(g.Players) >= g.MaxPlayers {
		return ErrGameFull
	}
	g.Players = append(g.Players, user)
	return nil
}

// RemovePlayer removes a player, reporting whether they were present.
// Removing an absent player is not an error; callers decide whether to say
// anything.
func (g *Game) RemovePlayer(user string) bool {
	for i, p := range g.Players {
		if p == user {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Reschedule moves the game and forces it back to scheduled, so a finished
// but not-yet-dead game can be revived. The announcement text is replaced.
func (g *Game) Reschedule(when time.Time, messageText string) {
	g.When = when
	g.State = GameStateScheduled
	g.MessageText = messageText
}

// Advance performs at most one lifecycle transition based on the current
// time. It is idempotent once the game is dead.
func (g *Game) Advance(now time.Time) GameState {
	switch g.State {
	case GameStateScheduled:
		if now.After(g.When.Add(-5 * time.Minute)) {
			g.State = GameStateActive
		}
	case GameStateActive:
		if now.After(g.EndTime()) {
			g.State = GameStateFinished
		}
	case GameStateFinished:
		if now.Sub(g.CreatedAt) > 12*time.Hour {
			g.State = GameStateDead
		}
	case GameStateDead:
		// terminal
	}

	return g.State
}

// ToHistoric mirrors the game into its ledger shape. The roster is copied,
// not aliased; the ledger is re-synced explicitly on roster changes.
func (g *Game) ToHistoric() *HistoricGame {
	players := make([]string, len(g.Players))
	copy(players, g.Players)

	return &HistoricGame{
		MessageID: g.Message.MessageID,
		ChannelID: g.ChannelID,
		Category:  g.Category,
		Players:   players,
		Mode:      g.Mode,
		CreatedAt: g.CreatedAt,
	}
}

// PrettyPlayers renders the roster as "a, b and c"
func (g *Game) PrettyPlayers(withCreator bool) string {
	players := g.Players
	if !withCreator {
		players = make([]string, 0, len(g.Players))
		for _, p := range g.Players {
			if p != g.CreatorID {
				players = append(players, p)
			}
		}
	}

	return PrettyUsers(players)
}

// Pretty renders the one-line summary used by the games listing
func (g *Game) Pretty() string {
	var b strings.Builder

	b.WriteString(WhenStr(g.When))
	if g.State == GameStateActive {
		b.WriteString(" (in progress ⏳)")
	}
	fmt.Fprintf(&b, ", %s's %s", FormatUser(g.CreatorID), g.Description)
	if g.Mode != "" {
		fmt.Fprintf(&b, " (%s)", g.Mode)
	}
	fmt.Fprintf(&b, " in `%s`, %d/%d players", g.Category, len(g.Players), g.MaxPlayers)

	return b.String()
}

// FormatUser renders a user mention
func FormatUser(user string) string {
	return fmt.Sprintf("<@%s>", user)
}

// PrettyUsers renders a list of user mentions as "a, b and c"
func PrettyUsers(users []string) string {
	switch len(users) {
	case 0:
		return ""
	case 1:
		return FormatUser(users[0])
	}

	formatted := make([]string, len(users)-1)
	for i, u := range users[:len(users)-1] {
		formatted[i] = FormatUser(u)
	}

	return strings.Join(formatted, ", ") + " and " + FormatUser(users[len(users)-1])
}
