package scheduler

import (
	"context"

	"github.com/scrubdub/hewbot/internal/models"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/scrubdub/hewbot/internal/services/scheduler Service
//go:generate mockgen -destination=mocks/mock_messenger.go -package=mocks github.com/scrubdub/hewbot/internal/services/scheduler Messenger

// Messenger is the transport boundary: it delivers announcements and
// notices and edits announcements in place
type Messenger interface {
	// Send posts a message to a channel and returns its message ID
	Send(ctx context.Context, channelID, text string) (string, error)

	// Update replaces the text of a previously sent message
	Update(ctx context.Context, ref models.MessageRef, text string) error
}

// Service is the scheduling engine: it owns the live game set and
// drives each game's lifecycle
type Service interface {
	// Initiate turns free text into a scheduled game, or reports
	// why it could not
	Initiate(ctx context.Context, input *InitiateInput) (*InitiateOutput, error)

	// Join adds a user to a game's roster
	Join(ctx context.Context, input *JoinInput) (*JoinOutput, error)

	// Leave removes a user from a game's roster
	Leave(ctx context.Context, input *LeaveInput) (*LeaveOutput, error)

	// Cancel removes a game entirely; creator only
	Cancel(ctx context.Context, input *CancelInput) (*CancelOutput, error)

	// Reschedule moves a game to a new time; creator only
	Reschedule(ctx context.Context, input *RescheduleInput) (*RescheduleOutput, error)

	// ListGames returns a channel's live games in start order
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)

	// GameByMessage resolves the live game announced by a message
	GameByMessage(ctx context.Context, input *GameByMessageInput) (*GameByMessageOutput, error)

	// Tick advances every live game's lifecycle and emits the
	// resulting notices
	Tick(ctx context.Context, input *TickInput) (*TickOutput, error)
}
