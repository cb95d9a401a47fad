package models

// Player holds per-user preferences that outlive individual games
type Player struct {
	// ID is the chat user ID of the player
	ID string

	// Muted suppresses @-mentions of the player in stats tables
	Muted bool
}
