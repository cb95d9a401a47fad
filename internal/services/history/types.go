package history

import (
	"github.com/scrubdub/hewbot/internal/models"
	"github.com/scrubdub/hewbot/internal/services/rating"
)

// DefaultGameHistory is how many recent rating deltas a summary shows
// when the request does not say otherwise
const DefaultGameHistory = 10

// AddGameInput holds parameters for mirroring a game into the ledger
type AddGameInput struct {
	// Game is the live game to record
	Game *models.Game
}

// CancelGameInput holds parameters for removing a ledger game
type CancelGameInput struct {
	// MessageID of the game's announcement message
	MessageID string
}

// SyncRosterInput holds parameters for a roster sync
type SyncRosterInput struct {
	// MessageID of the game's announcement message
	MessageID string

	// Players is the live roster to copy in
	Players []string
}

// GetGameInput holds parameters for a ledger lookup
type GetGameInput struct {
	// MessageID of the game's announcement message
	MessageID string
}

// GetGameOutput holds the result of a ledger lookup
type GetGameOutput struct {
	// Game is nil when the ledger has no such game
	Game *models.HistoricGame
}

// RegisterStatInput holds parameters for casting a stat vote
type RegisterStatInput struct {
	// MessageID of the game's announcement message
	MessageID string

	// User the vote is about
	User string

	// Voter casting the vote
	Voter string

	// Remove withdraws the vote instead of adding it
	Remove bool

	// Stat kind being voted
	Stat string
}

// RegisterStatOutput holds the result of casting a stat vote
type RegisterStatOutput struct {
	// Registered is false when the vote was rejected
	Registered bool
}

// SummaryStatsInput holds parameters for a stats summary
type SummaryStatsInput struct {
	// ChannelID to summarize
	ChannelID string

	// Year restricts the summary to games created in that year.
	// Zero means all time.
	Year int

	// Parameters are the request's k=N style options ("k" overrides
	// the K factor, "h" the history length)
	Parameters map[string]int
}

// UserStatLine is one user's row in a summary table
type UserStatLine struct {
	// User ID
	User string

	// Counts per stat kind
	Counts map[string]int

	// Played is the number of games the user was in
	Played int

	// GameWins is the number of games with at least one positive
	// stat for the user
	GameWins int

	// WinRatio is GameWins / Played
	WinRatio float64

	// Rating is the formatted rating, empty for tables that are
	// not rated
	Rating string

	// RecentDeltas are the rating changes of the user's most
	// recent rated games, oldest first
	RecentDeltas []int
}

// ModeTable is a summary table for one game mode
type ModeTable struct {
	// Mode is empty for the default mode
	Mode string

	// Lines ordered by win ratio, best first
	Lines []*UserStatLine
}

// SummaryStatsOutput holds the result of a stats summary
type SummaryStatsOutput struct {
	// Tables per mode; the default mode's table carries ratings
	Tables []*ModeTable
}

// UserRankingInput holds parameters for a win-ratio ranking
type UserRankingInput struct {
	// ChannelID to rank
	ChannelID string

	// Year restricts the ranking, zero means all time
	Year int
}

// UserRankingOutput holds the result of a win-ratio ranking
type UserRankingOutput struct {
	// Users ordered by win ratio, best first
	Users []string
}

// StandingsInput holds parameters for a rating recompute
type StandingsInput struct {
	// ChannelID to rate
	ChannelID string

	// Year restricts the computation, zero means all time
	Year int

	// K overrides the configured K factor when non-zero
	K int
}

// StandingsOutput holds the result of a rating recompute
type StandingsOutput struct {
	// Standings over the channel's rated games
	Standings *rating.Standings

	// MinGames is the provisional-rating threshold for rendering
	MinGames int
}
