package player

import (
	"github.com/scrubdub/hewbot/internal/models"
)

// SavePlayerInput holds parameters for saving a player
type SavePlayerInput struct {
	// Player to save
	Player *models.Player
}

// GetPlayerInput holds parameters for retrieving a player
type GetPlayerInput struct {
	// PlayerID of the player to retrieve
	PlayerID string
}
