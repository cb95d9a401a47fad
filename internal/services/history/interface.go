package history

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/scrubdub/hewbot/internal/services/history Service

// Service is the game ledger: the durable record of concluded games,
// their rosters and their stat votes, plus the stats and ratings
// derived from it
type Service interface {
	// AddGame mirrors a live game into the ledger. Idempotent by
	// the game's announcement message ID.
	AddGame(ctx context.Context, input *AddGameInput) error

	// CancelGame removes a game from the ledger so it contributes
	// no stats
	CancelGame(ctx context.Context, input *CancelGameInput) error

	// SyncRoster replaces a ledger game's player list with the
	// live roster
	SyncRoster(ctx context.Context, input *SyncRosterInput) error

	// GetGame looks up a ledger game by announcement message ID
	GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error)

	// RegisterStat adds or removes a stat vote. Registered is false
	// when the game is unknown or the voter did not play in it.
	RegisterStat(ctx context.Context, input *RegisterStatInput) (*RegisterStatOutput, error)

	// SummaryStats aggregates per-mode, per-user stat counts, win
	// ratios and ratings for a channel
	SummaryStats(ctx context.Context, input *SummaryStatsInput) (*SummaryStatsOutput, error)

	// UserRanking orders a channel's users by win ratio, best first
	UserRanking(ctx context.Context, input *UserRankingInput) (*UserRankingOutput, error)

	// Standings recomputes the channel's rating table from the
	// full ledger
	Standings(ctx context.Context, input *StandingsInput) (*StandingsOutput, error)
}
