package game

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/scrubdub/hewbot/internal/repositories/game Repository

import (
	"context"

	"github.com/scrubdub/hewbot/internal/models"
)

// Repository defines the interface for live game persistence
type Repository interface {
	// SaveGame persists a game
	SaveGame(ctx context.Context, input *SaveGameInput) error

	// GetGame retrieves a game by ID
	GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error)

	// DeleteGame removes a game
	DeleteGame(ctx context.Context, input *DeleteGameInput) error

	// ListGames retrieves every live game
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)
}
