package rating

import (
	"math"
	"sort"

	"github.com/scrubdub/hewbot/internal/models"
)

// Defaults used when Config fields are zero
const (
	DefaultInitialRating = 1500
	DefaultKFactor       = 20
	DefaultScrubBase     = 1.1
	DefaultMinGames      = 10
)

// Config holds tuning parameters for the rating engine
type Config struct {
	// InitialRating assigned to a player on first appearance
	InitialRating float64

	// KFactor scales rating deltas
	KFactor float64

	// ScrubBase controls how much scrub votes discount a winner's
	// gain: the delta is multiplied by ScrubBase^(-votes)
	ScrubBase float64

	// MinGames below which a player's displayed rating is provisional
	MinGames int
}

// Game is one completed team outcome drawn from the ledger
type Game struct {
	// Teams of player IDs, in a stable order
	Teams [][]string

	// WinnerIndex into Teams
	WinnerIndex int

	// Scrubs maps player ID to the number of scrub votes against
	// them in this game
	Scrubs map[string]int
}

// Standings is the derived view over a sequence of games
type Standings struct {
	// Players keyed by user ID
	Players map[string]*models.RatingPlayer

	// Ranked holds the same players ordered by rating, highest
	// first, ties broken by first appearance in the ledger
	Ranked []*models.RatingPlayer
}

// Engine recomputes ratings from scratch over a full game sequence.
// There is no incremental state, so retroactive stat edits and
// cancellations are always reflected consistently.
type Engine struct {
	config *Config
}

// NewEngine creates a rating engine, filling in defaults for any
// zero-valued config fields
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	filled := *cfg
	if filled.InitialRating == 0 {
		filled.InitialRating = DefaultInitialRating
	}
	if filled.KFactor == 0 {
		filled.KFactor = DefaultKFactor
	}
	if filled.ScrubBase == 0 {
		filled.ScrubBase = DefaultScrubBase
	}
	if filled.MinGames == 0 {
		filled.MinGames = DefaultMinGames
	}

	return &Engine{config: &filled}
}

// MinGames exposes the provisional-rating threshold for rendering
func (e *Engine) MinGames() int {
	return e.config.MinGames
}

// Compute replays the games in order and returns the resulting
// standings. A k of 0 uses the configured K factor.
func (e *Engine) Compute(games []*Game, k float64) *Standings {
	if k == 0 {
		k = e.config.KFactor
	}

	standings := &Standings{
		Players: make(map[string]*models.RatingPlayer),
	}

	for _, game := range games {
		e.applyGame(standings, game, k)
	}

	standings.Ranked = rank(standings)

	return standings
}

// applyGame scores one game against the running standings. The winner
// is rated against the pooled mean of every non-winning team; each
// losing team is rated against the winner. Empty teams contribute
// nothing and a side with no players skips the game.
func (e *Engine) applyGame(s *Standings, game *Game, k float64) {
	if game == nil || game.WinnerIndex < 0 || game.WinnerIndex >= len(game.Teams) {
		return
	}

	winner := game.Teams[game.WinnerIndex]

	var losers []string
	for i, team := range game.Teams {
		if i == game.WinnerIndex {
			continue
		}
		losers = append(losers, team...)
	}

	if len(winner) == 0 || len(losers) == 0 {
		return
	}

	// Register every participant before reading any means, so a
	// player's debut game still sees them at the initial rating
	for _, team := range game.Teams {
		for _, id := range team {
			s.player(id, e.config.InitialRating)
		}
	}

	winnerMean := s.teamMean(winner)
	loserMean := s.teamMean(losers)

	winnerDelta := ratingDelta(winnerMean, loserMean, true, k)
	for _, id := range winner {
		modifier := e.scrubModifier(game.Scrubs[id])
		applied := int(math.Round(float64(winnerDelta) * modifier))
		s.apply(id, game.WinnerIndex, applied, modifier)
	}

	for i, team := range game.Teams {
		if i == game.WinnerIndex || len(team) == 0 {
			continue
		}
		teamDelta := ratingDelta(s.teamMean(team), winnerMean, false, k)
		for _, id := range team {
			s.apply(id, i, teamDelta, 1)
		}
	}
}

// scrubModifier discounts a winner's gain per scrub vote
func (e *Engine) scrubModifier(votes int) float64 {
	if votes <= 0 {
		return 1
	}
	return math.Pow(e.config.ScrubBase, -float64(votes))
}

// expectedScore is the standard logistic ELO expectation
func expectedScore(rating, otherRating float64) float64 {
	return 1 / (1 + math.Pow(10, (otherRating-rating)/400))
}

// ratingDelta rounds K*(result-expected) and forces a zero result to
// +1 or -1 so every outcome moves the rating
func ratingDelta(rating, otherRating float64, won bool, k float64) int {
	result := 0.0
	if won {
		result = 1.0
	}

	delta := int(math.Round(k * (result - expectedScore(rating, otherRating))))
	if delta == 0 {
		if won {
			return 1
		}
		return -1
	}

	return delta
}

// player returns the tracked player, creating one at the initial
// rating on first sight
func (s *Standings) player(id string, initial float64) *models.RatingPlayer {
	if p, ok := s.Players[id]; ok {
		return p
	}

	p := &models.RatingPlayer{
		ID:     id,
		Rating: initial,
	}
	s.Players[id] = p

	// Remember insertion order for stable ranking later
	s.Ranked = append(s.Ranked, p)

	return p
}

func (s *Standings) teamMean(team []string) float64 {
	if len(team) == 0 {
		return 0
	}

	total := 0.0
	for _, id := range team {
		total += s.Players[id].Rating
	}

	return total / float64(len(team))
}

func (s *Standings) apply(id string, team, delta int, modifier float64) {
	p := s.Players[id]
	p.Rating += float64(delta)
	p.GamesPlayed++
	p.History = append(p.History, models.RatingSnapshot{
		Rating:   p.Rating,
		Team:     team,
		Delta:    delta,
		Modifier: modifier,
	})
}

// rank orders players by rating descending. The sort is stable over
// first-appearance order so ties stay deterministic.
func rank(s *Standings) []*models.RatingPlayer {
	ranked := make([]*models.RatingPlayer, len(s.Ranked))
	copy(ranked, s.Ranked)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})

	return ranked
}
