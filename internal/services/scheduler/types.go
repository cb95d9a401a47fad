package scheduler

import (
	"github.com/scrubdub/hewbot/internal/models"
)

// InitiateOutcome says what Initiate made of the text
type InitiateOutcome int

const (
	// InitiateNotScheduling means the text was not a scheduling
	// command and should be ignored
	InitiateNotScheduling InitiateOutcome = iota

	// InitiateCreated means a game was scheduled
	InitiateCreated

	// InitiateConflict means the slot overlaps an existing game
	InitiateConflict

	// InitiateAmbiguousTime means the text named several plausible
	// times with no clear winner
	InitiateAmbiguousTime
)

// InitiateInput holds parameters for scheduling a game from free text
type InitiateInput struct {
	// UserID of the initiator, auto-joined on success
	UserID string

	// ChannelID where the request was made and the game is announced
	ChannelID string

	// ChannelName decides the game's category
	ChannelName string

	// Text is the raw request
	Text string
}

// InitiateOutput holds the advisory result of an initiation
type InitiateOutput struct {
	Outcome InitiateOutcome

	// Game is set when Outcome is InitiateCreated
	Game *models.Game

	// Conflict names the overlapping game when Outcome is
	// InitiateConflict
	Conflict *models.Game

	// TimeSpecs lists the competing time expressions when Outcome
	// is InitiateAmbiguousTime
	TimeSpecs []string
}

// JoinOutcome says what happened to a join attempt
type JoinOutcome int

const (
	JoinJoined JoinOutcome = iota
	JoinAlreadyIn
	JoinFull
	JoinGameNotFound
)

// JoinInput holds parameters for joining a game
type JoinInput struct {
	// UserID joining
	UserID string

	// GameID to join
	GameID string
}

// JoinOutput holds the advisory result of a join
type JoinOutput struct {
	Outcome JoinOutcome

	// Game is set for every outcome except JoinGameNotFound
	Game *models.Game
}

// LeaveInput holds parameters for leaving a game
type LeaveInput struct {
	// UserID leaving
	UserID string

	// GameID to leave
	GameID string
}

// LeaveOutput holds the advisory result of a leave
type LeaveOutput struct {
	// Removed is false when the user was not on the roster
	Removed bool

	// Game is nil when the game is unknown
	Game *models.Game
}

// CancelOutcome says what happened to a cancel attempt
type CancelOutcome int

const (
	CancelCancelled CancelOutcome = iota
	CancelNotCreator
	CancelGameNotFound
)

// CancelInput holds parameters for cancelling a game
type CancelInput struct {
	// UserID requesting the cancel; must be the creator
	UserID string

	// GameID to cancel
	GameID string
}

// CancelOutput holds the advisory result of a cancel
type CancelOutput struct {
	Outcome CancelOutcome

	// Game is set for every outcome except CancelGameNotFound
	Game *models.Game
}

// RescheduleOutcome says what happened to a reschedule attempt
type RescheduleOutcome int

const (
	RescheduleMoved RescheduleOutcome = iota

	// RescheduleNoMatch means the selector matched no game
	RescheduleNoMatch

	// RescheduleAmbiguous means the selector matched several games
	RescheduleAmbiguous

	RescheduleNotCreator

	// RescheduleConflict means the destination slot overlaps
	// another game
	RescheduleConflict
)

// RescheduleInput holds parameters for moving a game
type RescheduleInput struct {
	// UserID requesting the move; must be the creator
	UserID string

	// ChannelID scopes the selector to one channel's games
	ChannelID string

	// Selector picks the game: an explicit time, a description
	// fragment, or empty for the user's own game
	Selector string

	// To is the destination time of day
	To models.TimeOfDay
}

// RescheduleOutput holds the advisory result of a reschedule
type RescheduleOutput struct {
	Outcome RescheduleOutcome

	// Game is the moved game when Outcome is RescheduleMoved
	Game *models.Game

	// Conflict names the blocking game when Outcome is
	// RescheduleConflict
	Conflict *models.Game

	// Matches counts selector candidates when Outcome is
	// RescheduleAmbiguous
	Matches int
}

// ListGamesInput holds parameters for listing live games
type ListGamesInput struct {
	// ChannelID to list; empty lists every channel
	ChannelID string
}

// ListGamesOutput holds live games in start order
type ListGamesOutput struct {
	Games []*models.Game
}

// GameByMessageInput holds parameters for resolving an announcement
type GameByMessageInput struct {
	// MessageID of the announcement message
	MessageID string
}

// GameByMessageOutput holds the resolved game, nil when unknown
type GameByMessageOutput struct {
	Game *models.Game
}

// TickInput holds parameters for a lifecycle pass
type TickInput struct{}

// TickOutput summarizes a lifecycle pass
type TickOutput struct {
	// Advanced counts games that changed state
	Advanced int

	// Evicted counts dead games removed from the live set
	Evicted int
}
