package history

import (
	"context"

	"github.com/scrubdub/hewbot/internal/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/scrubdub/hewbot/internal/repositories/history Repository

// Repository defines the interface for historic game storage
type Repository interface {
	// SaveGame stores or updates a historic game record
	SaveGame(ctx context.Context, input *SaveGameInput) error

	// GetGame retrieves a historic game by its announcement message ID
	GetGame(ctx context.Context, input *GetGameInput) (*models.HistoricGame, error)

	// DeleteGame removes a historic game record
	DeleteGame(ctx context.Context, input *DeleteGameInput) error

	// ListGames retrieves all historic games in chronological order
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)
}
