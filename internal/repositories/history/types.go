package history

import (
	"github.com/scrubdub/hewbot/internal/models"
)

// SaveGameInput holds parameters for saving a historic game
type SaveGameInput struct {
	// Game to save
	Game *models.HistoricGame
}

// GetGameInput holds parameters for retrieving a historic game
type GetGameInput struct {
	// MessageID of the game's announcement message
	MessageID string
}

// DeleteGameInput holds parameters for removing a historic game
type DeleteGameInput struct {
	// MessageID of the game's announcement message
	MessageID string
}

// ListGamesInput holds parameters for listing historic games
type ListGamesInput struct{}

// ListGamesOutput holds the result of listing historic games
type ListGamesOutput struct {
	// Games ordered oldest first
	Games []*models.HistoricGame
}
