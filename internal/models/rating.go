package models

import "fmt"

// RatingSnapshot records one game's effect on a player's rating
type RatingSnapshot struct {
	// Rating is the player's rating after the game was applied
	Rating float64

	// Team is the index of the team the player contributed to
	Team int

	// Delta is the applied rating change
	Delta int

	// Modifier is the scrub modifier that scaled the delta (1 when none)
	Modifier float64
}

// RatingPlayer is a player's derived competitive rating. It is recomputed
// from the full ledger on every query and never persisted.
type RatingPlayer struct {
	// ID is the user ID
	ID string

	// Rating is the current ELO-style rating
	Rating float64

	// GamesPlayed counts games that contributed to the rating
	GamesPlayed int

	// History holds one snapshot per game, in ledger order
	History []RatingSnapshot
}

// FormattedRating renders the rating, flagging players with fewer than
// minGames as provisional. The numeric computation is unaffected.
func (p *RatingPlayer) FormattedRating(minGames int) string {
	if p.GamesPlayed < minGames {
		return fmt.Sprintf("%.0f?", p.Rating)
	}
	return fmt.Sprintf("%.0f", p.Rating)
}
