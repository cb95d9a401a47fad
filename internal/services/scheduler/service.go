package scheduler

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/common/clock"
	"github.com/scrubdub/hewbot/internal/common/uuid"
	"github.com/scrubdub/hewbot/internal/metrics"
	"github.com/scrubdub/hewbot/internal/models"
	"github.com/scrubdub/hewbot/internal/parse"
	gameRepo "github.com/scrubdub/hewbot/internal/repositories/game"
	historySvc "github.com/scrubdub/hewbot/internal/services/history"
)

const (
	persistRetries  = 3
	persistInterval = 250 * time.Millisecond
)

// Config holds configuration for the scheduling engine
type Config struct {
	// Repo persists the live game set
	Repo gameRepo.Repository

	// History mirrors games into the ledger
	History historySvc.Service

	// Messenger posts and edits chat messages
	Messenger Messenger

	// Clock supplies the current time
	Clock clock.Clock

	// UUID generates game IDs
	UUID uuid.UUID

	// Metrics is optional; nil records nothing
	Metrics *metrics.Metrics
}

// service implements the Service interface. The live game set is held
// in memory and written through to the repository; all callers are
// serialized through the bot's event loop.
type service struct {
	config *Config
	games  []*models.Game
}

// New creates a scheduling engine and loads the live game set from
// the repository
func New(ctx context.Context, cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.Repo == nil {
		return nil, ErrNilRepo
	}

	if cfg.History == nil {
		return nil, ErrNilHistory
	}

	if cfg.Messenger == nil {
		return nil, ErrNilMessenger
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUID == nil {
		return nil, ErrNilUUID
	}

	list, err := cfg.Repo.ListGames(ctx, &gameRepo.ListGamesInput{})
	if err != nil {
		return nil, err
	}

	games := list.Games
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return &service{
		config: cfg,
		games:  games,
	}, nil
}

// Initiate turns free text into a scheduled game. Everything the user
// can get wrong comes back as an advisory outcome, not an error.
func (s *service) Initiate(ctx context.Context, input *InitiateInput) (*InitiateOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	cat := category.FromChannel(input.ChannelName)

	init, err := parse.ParseInitiation(input.Text, cat)
	if err != nil {
		var tooMany *parse.TooManyTimeSpecsError
		if errors.As(err, &tooMany) {
			return &InitiateOutput{
				Outcome:   InitiateAmbiguousTime,
				TimeSpecs: tooMany.Specs,
			}, nil
		}
		return nil, err
	}

	if init == nil {
		return &InitiateOutput{Outcome: InitiateNotScheduling}, nil
	}

	if init.Description == "" {
		init.Description = "big game"
	}

	now := s.config.Clock.Now()
	when := init.When.At(now)
	end := when.Add(time.Duration(init.PlayTime) * time.Minute)

	if conflict := s.overlapping(cat.Name, when, end, ""); conflict != nil {
		return &InitiateOutput{
			Outcome:  InitiateConflict,
			Conflict: conflict,
		}, nil
	}

	game := &models.Game{
		ID:          s.config.UUID.NewUUID(),
		Category:    cat.Name,
		ChannelID:   input.ChannelID,
		When:        when,
		PlayTime:    init.PlayTime,
		Description: init.Description,
		Mode:        init.Mode,
		CreatorID:   input.UserID,
		Players:     []string{input.UserID},
		MaxPlayers:  init.MaxPlayers,
		State:       models.GameStateScheduled,
		CreatedAt:   now,
	}
	game.MessageText = announceText(game)

	messageID, err := s.config.Messenger.Send(ctx, input.ChannelID, game.MessageText)
	if err != nil {
		return nil, err
	}
	game.Message = models.MessageRef{ChannelID: input.ChannelID, MessageID: messageID}

	s.games = append(s.games, game)
	s.persist(ctx, game)

	if err := s.config.History.AddGame(ctx, &historySvc.AddGameInput{Game: game}); err != nil {
		return nil, err
	}

	s.config.Metrics.GameCreated()

	return &InitiateOutput{Outcome: InitiateCreated, Game: game}, nil
}

// Join adds a user to a game's roster and keeps the ledger and the
// announcement message in step
func (s *service) Join(ctx context.Context, input *JoinInput) (*JoinOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	game := s.find(input.GameID)
	if game == nil {
		return &JoinOutput{Outcome: JoinGameNotFound}, nil
	}

	if err := game.AddPlayer(input.UserID); err != nil {
		outcome := JoinAlreadyIn
		if errors.Is(err, models.ErrGameFull) {
			outcome = JoinFull
		}
		return &JoinOutput{Outcome: outcome, Game: game}, nil
	}

	s.afterRosterChange(ctx, game)

	return &JoinOutput{Outcome: JoinJoined, Game: game}, nil
}

// Leave removes a user from a game's roster. Leaving a game you are
// not in is a signal, not an error.
func (s *service) Leave(ctx context.Context, input *LeaveInput) (*LeaveOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	game := s.find(input.GameID)
	if game == nil {
		return &LeaveOutput{}, nil
	}

	if !game.RemovePlayer(input.UserID) {
		return &LeaveOutput{Game: game}, nil
	}

	s.afterRosterChange(ctx, game)

	return &LeaveOutput{Removed: true, Game: game}, nil
}

// Cancel removes a game from the live set and the ledger. Only the
// creator may cancel.
func (s *service) Cancel(ctx context.Context, input *CancelInput) (*CancelOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	game := s.find(input.GameID)
	if game == nil {
		return &CancelOutput{Outcome: CancelGameNotFound}, nil
	}

	if game.CreatorID != input.UserID {
		return &CancelOutput{Outcome: CancelNotCreator, Game: game}, nil
	}

	s.evict(ctx, game)

	if err := s.config.History.CancelGame(ctx, &historySvc.CancelGameInput{
		MessageID: game.Message.MessageID,
	}); err != nil {
		return nil, err
	}

	s.updateMessage(ctx, game, cancelledText(game))
	s.config.Metrics.GameCancelled()

	return &CancelOutput{Outcome: CancelCancelled, Game: game}, nil
}

// Reschedule moves one of the channel's games to a new time. The
// selector is an explicit time, a description fragment, or empty for
// the caller's own game.
func (s *service) Reschedule(ctx context.Context, input *RescheduleInput) (*RescheduleOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	matches := s.selectGames(input.ChannelID, input.UserID, input.Selector)
	if len(matches) == 0 {
		return &RescheduleOutput{Outcome: RescheduleNoMatch}, nil
	}
	if len(matches) > 1 {
		return &RescheduleOutput{
			Outcome: RescheduleAmbiguous,
			Matches: len(matches),
		}, nil
	}

	game := matches[0]
	if game.CreatorID != input.UserID {
		return &RescheduleOutput{Outcome: RescheduleNotCreator, Game: game}, nil
	}

	when := input.To.At(s.config.Clock.Now())
	end := when.Add(time.Duration(game.PlayTime) * time.Minute)

	if conflict := s.overlapping(game.Category, when, end, game.ID); conflict != nil {
		return &RescheduleOutput{
			Outcome:  RescheduleConflict,
			Game:     game,
			Conflict: conflict,
		}, nil
	}

	game.Reschedule(when, "")
	game.MessageText = announceText(game)
	s.persist(ctx, game)
	s.updateMessage(ctx, game, game.MessageText)

	return &RescheduleOutput{Outcome: RescheduleMoved, Game: game}, nil
}

// ListGames returns a channel's live games in start order
func (s *service) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	var games []*models.Game
	for _, game := range s.games {
		if input.ChannelID == "" || game.ChannelID == input.ChannelID {
			games = append(games, game)
		}
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].When.Before(games[j].When)
	})

	return &ListGamesOutput{Games: games}, nil
}

// GameByMessage resolves the live game announced by a message
func (s *service) GameByMessage(ctx context.Context, input *GameByMessageInput) (*GameByMessageOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	for _, game := range s.games {
		if game.Message.MessageID == input.MessageID {
			return &GameByMessageOutput{Game: game}, nil
		}
	}

	return &GameByMessageOutput{}, nil
}

// Tick advances every live game's lifecycle by at most one transition
// and emits the notices those transitions call for. Repeated ticks on
// settled games do nothing.
func (s *service) Tick(ctx context.Context, input *TickInput) (*TickOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	now := s.config.Clock.Now()
	out := &TickOutput{}

	// Walk a snapshot since eviction mutates the live set
	snapshot := append([]*models.Game(nil), s.games...)

	for _, game := range snapshot {
		before := game.State
		after := game.Advance(now)
		if after == before {
			continue
		}

		out.Advanced++

		switch after {
		case models.GameStateActive:
			s.noticeActive(ctx, game)
		case models.GameStateFinished:
			s.noticeFinished(ctx, game)
			s.config.Metrics.GameFinished()
		case models.GameStateDead:
			s.evict(ctx, game)
			out.Evicted++
			continue
		}

		s.persist(ctx, game)
	}

	s.config.Metrics.Tick()

	return out, nil
}

// noticeActive announces kickoff, or a lament when nobody joined. If
// another game in the same category starts shortly after this one
// ends, the kickoff plugs it.
func (s *service) noticeActive(ctx context.Context, game *models.Game) {
	if len(game.Players) == 0 {
		s.send(ctx, game.ChannelID, nobodyText(game))
		return
	}

	var next *models.Game
	for _, other := range s.games {
		if other.ID == game.ID || other.Category != game.Category {
			continue
		}
		if other.State != models.GameStateScheduled {
			continue
		}
		gap := other.When.Sub(game.EndTime())
		if gap >= 0 && gap <= followOnWindow {
			if next == nil || other.When.Before(next.When) {
				next = other
			}
		}
	}

	s.send(ctx, game.ChannelID, kickoffText(game, next))
}

// noticeFinished prompts for stat votes when the category has any
func (s *service) noticeFinished(ctx context.Context, game *models.Game) {
	prompt := category.ByName(game.Category).VotePrompt(game.Players)
	if prompt == "" {
		return
	}

	s.send(ctx, game.ChannelID, prompt)
}

// afterRosterChange persists the game, re-syncs the ledger and
// refreshes the announcement
func (s *service) afterRosterChange(ctx context.Context, game *models.Game) {
	game.MessageText = announceText(game)
	s.persist(ctx, game)

	if err := s.config.History.SyncRoster(ctx, &historySvc.SyncRosterInput{
		MessageID: game.Message.MessageID,
		Players:   game.Players,
	}); err != nil {
		log.Printf("Failed to sync roster for game %s: %v", game.ID, err)
	}

	s.updateMessage(ctx, game, game.MessageText)
}

// overlapping returns a live game in the category whose play window
// truly overlaps [when, end), or nil. Back-to-back adjacency is fine.
func (s *service) overlapping(categoryName string, when, end time.Time, excludeID string) *models.Game {
	for _, game := range s.games {
		if game.ID == excludeID || game.Category != categoryName {
			continue
		}
		if game.State == models.GameStateFinished || game.State == models.GameStateDead {
			continue
		}
		if game.Contains(when, true) || game.Contains(end, false) {
			return game
		}
		// The candidate window could swallow the existing game
		if !game.When.Before(when) && game.When.Before(end) {
			return game
		}
	}

	return nil
}

// selectGames resolves a reschedule selector against one channel's
// live games
func (s *service) selectGames(channelID, userID, selector string) []*models.Game {
	var channelGames []*models.Game
	for _, game := range s.games {
		if game.ChannelID == channelID {
			channelGames = append(channelGames, game)
		}
	}

	selector = strings.TrimSpace(selector)

	if selector == "" {
		var own []*models.Game
		for _, game := range channelGames {
			if game.CreatorID == userID {
				own = append(own, game)
			}
		}
		return own
	}

	if at, err := parse.ParseTime(selector, ""); err == nil {
		var slot []*models.Game
		for _, game := range channelGames {
			if models.WhenStr(game.When) == at.String() {
				slot = append(slot, game)
			}
		}
		return slot
	}

	var matched []*models.Game
	needle := strings.ToLower(selector)
	for _, game := range channelGames {
		if strings.Contains(strings.ToLower(game.Description), needle) {
			matched = append(matched, game)
		}
	}
	return matched
}

// find returns the live game with the given ID, or nil
func (s *service) find(gameID string) *models.Game {
	for _, game := range s.games {
		if game.ID == gameID {
			return game
		}
	}
	return nil
}

// evict drops a game from the live set and the repository. The
// ledger's copy, if any, is untouched.
func (s *service) evict(ctx context.Context, game *models.Game) {
	for i, g := range s.games {
		if g.ID == game.ID {
			s.games = append(s.games[:i], s.games[i+1:]...)
			break
		}
	}

	op := func() error {
		return s.config.Repo.DeleteGame(ctx, &gameRepo.DeleteGameInput{GameID: game.ID})
	}

	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		log.Printf("Failed to delete game %s: %v", game.ID, err)
	}
}

// persist writes one game through to the repository. Failures are
// retried a few times, then logged and dropped; the in-memory set
// stays authoritative for the life of the process.
func (s *service) persist(ctx context.Context, game *models.Game) {
	op := func() error {
		return s.config.Repo.SaveGame(ctx, &gameRepo.SaveGameInput{Game: game})
	}

	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		log.Printf("Failed to persist game %s: %v", game.ID, err)
	}
}

// send posts a notice, logging delivery failures instead of failing
// the tick
func (s *service) send(ctx context.Context, channelID, text string) {
	if _, err := s.config.Messenger.Send(ctx, channelID, text); err != nil {
		log.Printf("Failed to send notice to channel %s: %v", channelID, err)
	}
}

// updateMessage edits an announcement in place, logging failures
func (s *service) updateMessage(ctx context.Context, game *models.Game, text string) {
	if game.Message.IsZero() {
		return
	}

	if err := s.config.Messenger.Update(ctx, game.Message, text); err != nil {
		log.Printf("Failed to update announcement for game %s: %v", game.ID, err)
	}
}

func retryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(persistInterval), persistRetries)
	return backoff.WithContext(policy, ctx)
}
