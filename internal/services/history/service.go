package history

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/models"
	historyRepo "github.com/scrubdub/hewbot/internal/repositories/history"
	"github.com/scrubdub/hewbot/internal/services/rating"
)

const (
	persistRetries  = 3
	persistInterval = 250 * time.Millisecond
)

// Config holds configuration for the history service
type Config struct {
	// Repo persists the ledger
	Repo historyRepo.Repository

	// Engine computes ratings over the ledger
	Engine *rating.Engine

	// NegativeStats are the stat kinds that do not count as a win
	NegativeStats []string
}

// service implements the Service interface. The ledger is held in
// memory and written through to the repository at each mutation; all
// callers are serialized through the bot's event loop.
type service struct {
	config        *Config
	games         []*models.HistoricGame
	negativeStats map[string]bool
}

// New creates a history service and loads the full ledger from the
// repository
func New(ctx context.Context, cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.Repo == nil {
		return nil, ErrNilRepo
	}

	if cfg.Engine == nil {
		cfg.Engine = rating.NewEngine(nil)
	}

	negative := make(map[string]bool, len(cfg.NegativeStats))
	for _, stat := range cfg.NegativeStats {
		negative[stat] = true
	}

	list, err := cfg.Repo.ListGames(ctx, &historyRepo.ListGamesInput{})
	if err != nil {
		return nil, err
	}

	return &service{
		config:        cfg,
		games:         list.Games,
		negativeStats: negative,
	}, nil
}

// AddGame mirrors a live game into the ledger. Idempotent by the
// game's announcement message ID.
func (s *service) AddGame(ctx context.Context, input *AddGameInput) error {
	if input == nil || input.Game == nil {
		return ErrNilInput
	}

	if s.find(input.Game.Message.MessageID) != nil {
		return nil
	}

	historic := input.Game.ToHistoric()
	s.games = append(s.games, historic)
	s.persist(ctx, historic)

	return nil
}

// CancelGame removes a game from the ledger so it contributes no stats
func (s *service) CancelGame(ctx context.Context, input *CancelGameInput) error {
	if input == nil {
		return ErrNilInput
	}

	for i, game := range s.games {
		if game.MessageID == input.MessageID {
			s.games = append(s.games[:i], s.games[i+1:]...)
			s.remove(ctx, input.MessageID)
			return nil
		}
	}

	return nil
}

// SyncRoster replaces a ledger game's player list with the live roster
func (s *service) SyncRoster(ctx context.Context, input *SyncRosterInput) error {
	if input == nil {
		return ErrNilInput
	}

	game := s.find(input.MessageID)
	if game == nil {
		return ErrGameNotFound
	}

	game.Players = append([]string(nil), input.Players...)
	s.persist(ctx, game)

	return nil
}

// GetGame looks up a ledger game by announcement message ID
func (s *service) GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	return &GetGameOutput{Game: s.find(input.MessageID)}, nil
}

// RegisterStat adds or removes a stat vote. Only participants of the
// game may vote.
func (s *service) RegisterStat(ctx context.Context, input *RegisterStatInput) (*RegisterStatOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	game := s.find(input.MessageID)
	if game == nil {
		return &RegisterStatOutput{Registered: false}, nil
	}

	if !game.HasPlayer(input.Voter) {
		return &RegisterStatOutput{Registered: false}, nil
	}

	var changed bool
	if input.Remove {
		changed = game.RemoveStat(input.Stat, input.User, input.Voter)
	} else {
		changed = game.AddStat(input.Stat, input.User, input.Voter)
	}

	if changed {
		s.persist(ctx, game)
	}

	return &RegisterStatOutput{Registered: true}, nil
}

// SummaryStats aggregates per-mode, per-user stat counts, win ratios
// and ratings for a channel. Ratings are merged into the default
// mode's table only.
func (s *service) SummaryStats(ctx context.Context, input *SummaryStatsInput) (*SummaryStatsOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	tables := s.rawStats(input.ChannelID, input.Year)

	k := 0
	historyLen := DefaultGameHistory
	if input.Parameters != nil {
		k = input.Parameters["k"]
		if h, ok := input.Parameters["h"]; ok && h > 0 {
			historyLen = h
		}
	}

	standings := s.config.Engine.Compute(s.ratedGames(input.ChannelID, input.Year), float64(k))

	for _, table := range tables {
		if table.Mode != "" {
			continue
		}
		for _, line := range table.Lines {
			player, ok := standings.Players[line.User]
			if !ok {
				continue
			}
			line.Rating = player.FormattedRating(s.config.Engine.MinGames())
			line.RecentDeltas = recentDeltas(player, historyLen)
		}
	}

	return &SummaryStatsOutput{Tables: tables}, nil
}

// UserRanking orders a channel's users by win ratio, best first. Only
// default-mode games count, and ties keep first-appearance order.
func (s *service) UserRanking(ctx context.Context, input *UserRankingInput) (*UserRankingOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	type tally struct {
		wins   int
		played int
	}

	tallies := make(map[string]*tally)
	var order []string

	for _, game := range s.games {
		if !s.gameInScope(game, input.ChannelID, input.Year) || game.Mode != "" {
			continue
		}
		for _, user := range game.Players {
			t, ok := tallies[user]
			if !ok {
				t = &tally{}
				tallies[user] = t
				order = append(order, user)
			}
			t.played++
			if s.hasWinStat(user, game) {
				t.wins++
			}
		}
	}

	ratio := func(user string) float64 {
		t := tallies[user]
		if t.played == 0 {
			return 0
		}
		return float64(t.wins) / float64(t.played)
	}

	users := append([]string(nil), order...)
	sort.SliceStable(users, func(i, j int) bool {
		return ratio(users[i]) > ratio(users[j])
	})

	return &UserRankingOutput{Users: users}, nil
}

// Standings recomputes the channel's rating table from the full ledger
func (s *service) Standings(ctx context.Context, input *StandingsInput) (*StandingsOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	standings := s.config.Engine.Compute(
		s.ratedGames(input.ChannelID, input.Year),
		float64(input.K),
	)

	return &StandingsOutput{
		Standings: standings,
		MinGames:  s.config.Engine.MinGames(),
	}, nil
}

// find returns the ledger game for a message ID, or nil
func (s *service) find(messageID string) *models.HistoricGame {
	for _, game := range s.games {
		if game.MessageID == messageID {
			return game
		}
	}
	return nil
}

func (s *service) statIsPositive(stat string) bool {
	return !s.negativeStats[stat]
}

// hasWinStat reports whether the user holds at least one positive
// stat vote in the game
func (s *service) hasWinStat(user string, game *models.HistoricGame) bool {
	for _, vote := range game.Stats {
		if vote.User == user && s.statIsPositive(vote.Stat) {
			return true
		}
	}
	return false
}

func (s *service) gameInScope(game *models.HistoricGame, channelID string, year int) bool {
	if channelID != "" && game.ChannelID != channelID {
		return false
	}
	if year != 0 && game.CreatedAt.Year() != year {
		return false
	}
	return true
}

// rawStats builds the per-mode, per-user summary tables, without
// ratings
func (s *service) rawStats(channelID string, year int) []*ModeTable {
	tables := make(map[string]*ModeTable)
	lines := make(map[string]map[string]*UserStatLine)
	var modeOrder []string

	line := func(mode, user string) *UserStatLine {
		if _, ok := tables[mode]; !ok {
			tables[mode] = &ModeTable{Mode: mode}
			lines[mode] = make(map[string]*UserStatLine)
			modeOrder = append(modeOrder, mode)
		}
		l, ok := lines[mode][user]
		if !ok {
			l = &UserStatLine{User: user, Counts: make(map[string]int)}
			lines[mode][user] = l
			tables[mode].Lines = append(tables[mode].Lines, l)
		}
		return l
	}

	for _, game := range s.games {
		if !s.gameInScope(game, channelID, year) {
			continue
		}

		limitSingleWin := category.ByName(game.Category).LimitSingleWin

		// A game may carry several votes for the same user; when
		// the category counts only one win per game, extra
		// positive votes are dropped before counting
		counted := make(map[string]bool)
		for _, vote := range game.Stats {
			if limitSingleWin && s.statIsPositive(vote.Stat) {
				if counted[vote.User] {
					continue
				}
				counted[vote.User] = true
			}
			line(game.Mode, vote.User).Counts[vote.Stat]++
		}

		for _, user := range game.Players {
			l := line(game.Mode, user)
			l.Played++
			if s.hasWinStat(user, game) {
				l.GameWins++
			}
		}
	}

	ordered := make([]*ModeTable, 0, len(modeOrder))

	// Default mode leads, remaining modes keep first-seen order
	sort.SliceStable(modeOrder, func(i, j int) bool {
		return modeOrder[i] == "" && modeOrder[j] != ""
	})

	for _, mode := range modeOrder {
		table := tables[mode]
		for _, l := range table.Lines {
			if l.Played > 0 {
				l.WinRatio = float64(l.GameWins) / float64(l.Played)
			}
		}
		sort.SliceStable(table.Lines, func(i, j int) bool {
			return table.Lines[i].WinRatio > table.Lines[j].WinRatio
		})
		ordered = append(ordered, table)
	}

	return ordered
}

// ratedGames converts the channel's ledger into rating-engine games.
// Winners are the players holding a positive stat, everyone else on
// the roster loses, and negative votes become scrub counts.
func (s *service) ratedGames(channelID string, year int) []*rating.Game {
	var games []*rating.Game

	for _, game := range s.games {
		if !s.gameInScope(game, channelID, year) {
			continue
		}

		winners := make(map[string]bool)
		scrubs := make(map[string]int)
		for _, vote := range game.Stats {
			if s.statIsPositive(vote.Stat) {
				winners[vote.User] = true
			} else {
				scrubs[vote.User]++
			}
		}

		var winning, losing []string
		for _, user := range game.Players {
			if winners[user] {
				winning = append(winning, user)
			} else {
				losing = append(losing, user)
			}
		}

		if len(winning) == 0 || len(losing) == 0 {
			continue
		}

		games = append(games, &rating.Game{
			Teams:       [][]string{winning, losing},
			WinnerIndex: 0,
			Scrubs:      scrubs,
		})
	}

	return games
}

// recentDeltas returns the player's last n rating changes, oldest
// first
func recentDeltas(player *models.RatingPlayer, n int) []int {
	snapshots := player.History
	if len(snapshots) > n {
		snapshots = snapshots[len(snapshots)-n:]
	}

	deltas := make([]int, 0, len(snapshots))
	for _, snap := range snapshots {
		deltas = append(deltas, snap.Delta)
	}

	return deltas
}

// persist writes one ledger game through to the repository. Failures
// are retried a few times and then logged and dropped; the in-memory
// ledger stays authoritative for the life of the process.
func (s *service) persist(ctx context.Context, game *models.HistoricGame) {
	op := func() error {
		return s.config.Repo.SaveGame(ctx, &historyRepo.SaveGameInput{Game: game})
	}

	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		log.Printf("Failed to persist historic game %s: %v", game.MessageID, err)
	}
}

// remove deletes one ledger game from the repository, with the same
// retry policy as persist
func (s *service) remove(ctx context.Context, messageID string) {
	op := func() error {
		return s.config.Repo.DeleteGame(ctx, &historyRepo.DeleteGameInput{MessageID: messageID})
	}

	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		log.Printf("Failed to remove historic game %s: %v", messageID, err)
	}
}

func retryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(persistInterval), persistRetries)
	return backoff.WithContext(policy, ctx)
}
