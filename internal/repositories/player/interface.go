package player

import (
	"context"

	"github.com/scrubdub/hewbot/internal/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/scrubdub/hewbot/internal/repositories/player Repository

// Repository defines the interface for player option storage
type Repository interface {
	// SavePlayer stores or updates a player's options
	SavePlayer(ctx context.Context, input *SavePlayerInput) error

	// GetPlayer retrieves a player's options
	GetPlayer(ctx context.Context, input *GetPlayerInput) (*models.Player, error)
}
