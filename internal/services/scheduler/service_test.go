package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/scrubdub/hewbot/internal/common/clock/mocks"
	uuidMocks "github.com/scrubdub/hewbot/internal/common/uuid/mocks"
	"github.com/scrubdub/hewbot/internal/models"
	gameRepo "github.com/scrubdub/hewbot/internal/repositories/game"
	historyRepo "github.com/scrubdub/hewbot/internal/repositories/history"
	historySvc "github.com/scrubdub/hewbot/internal/services/history"
	"github.com/scrubdub/hewbot/internal/services/scheduler/mocks"
)

type sentMessage struct {
	channelID string
	text      string
}

type SchedulerTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	mockClock     *clockMocks.MockClock
	mockUUID      *uuidMocks.MockUUID
	mockMessenger *mocks.MockMessenger
	mr            *miniredis.Miniredis
	client        *redis.Client
	repo          gameRepo.Repository
	history       historySvc.Service
	service       Service
	ctx           context.Context

	now     time.Time
	sent    []sentMessage
	updated []sentMessage
}

func (s *SchedulerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.mockCtrl)
	s.mockMessenger = mocks.NewMockMessenger(s.mockCtrl)

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := gameRepo.NewRedis(&gameRepo.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.repo = repo

	ledgerRepo, err := historyRepo.NewRedis(&historyRepo.Config{RedisClient: s.client})
	s.Require().NoError(err)

	s.ctx = context.Background()

	ledger, err := historySvc.New(s.ctx, &historySvc.Config{Repo: ledgerRepo})
	s.Require().NoError(err)
	s.history = ledger

	s.now = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s.sent = nil
	s.updated = nil

	s.mockClock.EXPECT().Now().DoAndReturn(func() time.Time {
		return s.now
	}).AnyTimes()

	messageSeq := 0
	s.mockMessenger.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, channelID, text string) (string, error) {
			messageSeq++
			s.sent = append(s.sent, sentMessage{channelID: channelID, text: text})
			return fmt.Sprintf("msg-%d", messageSeq), nil
		}).AnyTimes()
	s.mockMessenger.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ref models.MessageRef, text string) error {
			s.updated = append(s.updated, sentMessage{channelID: ref.ChannelID, text: text})
			return nil
		}).AnyTimes()

	uuidSeq := 0
	s.mockUUID.EXPECT().NewUUID().DoAndReturn(func() string {
		uuidSeq++
		return fmt.Sprintf("game-%d", uuidSeq)
	}).AnyTimes()

	svc, err := New(s.ctx, &Config{
		Repo:      s.repo,
		History:   s.history,
		Messenger: s.mockMessenger,
		Clock:     s.mockClock,
		UUID:      s.mockUUID,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *SchedulerTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
	s.mockCtrl.Finish()
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) initiate(user, text string) *InitiateOutput {
	out, err := s.service.Initiate(s.ctx, &InitiateInput{
		UserID:      user,
		ChannelID:   "channel-1",
		ChannelName: "games",
		Text:        text,
	})
	s.Require().NoError(err)
	return out
}

func (s *SchedulerTestSuite) TestInitiateCreatesGame() {
	out := s.initiate("alice", "big game at 3pm")

	s.Require().Equal(InitiateCreated, out.Outcome)
	s.Require().NotNil(out.Game)

	game := out.Game
	s.Equal("game-1", game.ID)
	s.Equal("default", game.Category)
	s.Equal("big game", game.Description)
	s.Equal(15, game.When.Hour())
	s.Equal(0, game.When.Minute())
	s.Equal(s.now.Day(), game.When.Day())
	s.Equal(25, game.PlayTime)
	s.Equal(4, game.MaxPlayers)
	s.Equal([]string{"alice"}, game.Players)
	s.Equal(models.GameStateScheduled, game.State)
	s.Equal("msg-1", game.Message.MessageID)

	// Announcement was sent
	s.Require().Len(s.sent, 1)
	s.Contains(s.sent[0].text, "big game")
	s.Contains(s.sent[0].text, "15:00")

	// Persisted in the live set
	saved, err := s.repo.GetGame(s.ctx, &gameRepo.GetGameInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Equal("big game", saved.Description)

	// Mirrored into the ledger
	ledger, err := s.history.GetGame(s.ctx, &historySvc.GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Require().NotNil(ledger.Game)
	s.Equal([]string{"alice"}, ledger.Game.Players)
}

func (s *SchedulerTestSuite) TestInitiateEmptyDescriptionDefaults() {
	out := s.initiate("alice", "at 3pm")

	s.Require().Equal(InitiateCreated, out.Outcome)
	s.Equal("big game", out.Game.Description)

	s.Require().Len(s.sent, 1)
	s.Contains(s.sent[0].text, "big game")
}

func (s *SchedulerTestSuite) TestInitiatePassesThroughChatter() {
	out := s.initiate("alice", "anyone up for a game later?")
	s.Equal(InitiateNotScheduling, out.Outcome)
	s.Empty(s.sent)
}

func (s *SchedulerTestSuite) TestInitiateAmbiguousTime() {
	out := s.initiate("alice", "3pm or 2:30 maybe")
	s.Equal(InitiateAmbiguousTime, out.Outcome)
	s.Len(out.TimeSpecs, 2)
	s.Empty(s.sent)
}

func (s *SchedulerTestSuite) TestInitiateConflict() {
	first := s.initiate("alice", "game at 15:00")
	s.Require().Equal(InitiateCreated, first.Outcome)

	// Overlaps 15:00-15:25
	out := s.initiate("bob", "another at 15:10")
	s.Equal(InitiateConflict, out.Outcome)
	s.Require().NotNil(out.Conflict)
	s.Equal(first.Game.ID, out.Conflict.ID)
}

func (s *SchedulerTestSuite) TestInitiateAllowsBackToBack() {
	first := s.initiate("alice", "game at 15:00")
	s.Require().Equal(InitiateCreated, first.Outcome)

	// Starts exactly when the first ends
	out := s.initiate("bob", "next at 15:25")
	s.Equal(InitiateCreated, out.Outcome)
}

func (s *SchedulerTestSuite) TestJoinSyncsRosterAndMessage() {
	created := s.initiate("alice", "game at 3pm")
	gameID := created.Game.ID

	out, err := s.service.Join(s.ctx, &JoinInput{UserID: "bob", GameID: gameID})
	s.Require().NoError(err)
	s.Equal(JoinJoined, out.Outcome)
	s.Equal([]string{"alice", "bob"}, out.Game.Players)

	// Ledger follows the live roster
	ledger, err := s.history.GetGame(s.ctx, &historySvc.GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob"}, ledger.Game.Players)

	// Announcement re-rendered with the new roster
	s.Require().NotEmpty(s.updated)
	s.Contains(s.updated[len(s.updated)-1].text, "<@bob>")
}

func (s *SchedulerTestSuite) TestJoinAdvisoryOutcomes() {
	created := s.initiate("alice", "1v1 me at 3pm")
	gameID := created.Game.ID
	s.Require().Equal(2, created.Game.MaxPlayers)

	out, err := s.service.Join(s.ctx, &JoinInput{UserID: "alice", GameID: gameID})
	s.Require().NoError(err)
	s.Equal(JoinAlreadyIn, out.Outcome)

	out, err = s.service.Join(s.ctx, &JoinInput{UserID: "bob", GameID: gameID})
	s.Require().NoError(err)
	s.Equal(JoinJoined, out.Outcome)

	out, err = s.service.Join(s.ctx, &JoinInput{UserID: "carol", GameID: gameID})
	s.Require().NoError(err)
	s.Equal(JoinFull, out.Outcome)

	out, err = s.service.Join(s.ctx, &JoinInput{UserID: "dave", GameID: "missing"})
	s.Require().NoError(err)
	s.Equal(JoinGameNotFound, out.Outcome)
}

func (s *SchedulerTestSuite) TestLeave() {
	created := s.initiate("alice", "game at 3pm")
	gameID := created.Game.ID

	out, err := s.service.Leave(s.ctx, &LeaveInput{UserID: "bob", GameID: gameID})
	s.Require().NoError(err)
	s.False(out.Removed)

	out, err = s.service.Leave(s.ctx, &LeaveInput{UserID: "alice", GameID: gameID})
	s.Require().NoError(err)
	s.True(out.Removed)
	s.Empty(out.Game.Players)
}

func (s *SchedulerTestSuite) TestCancel() {
	created := s.initiate("alice", "game at 3pm")
	gameID := created.Game.ID

	out, err := s.service.Cancel(s.ctx, &CancelInput{UserID: "bob", GameID: gameID})
	s.Require().NoError(err)
	s.Equal(CancelNotCreator, out.Outcome)

	out, err = s.service.Cancel(s.ctx, &CancelInput{UserID: "alice", GameID: gameID})
	s.Require().NoError(err)
	s.Equal(CancelCancelled, out.Outcome)

	// Gone from the live set
	_, err = s.repo.GetGame(s.ctx, &gameRepo.GetGameInput{GameID: gameID})
	s.Require().ErrorIs(err, gameRepo.ErrGameNotFound)

	// Gone from the ledger
	ledger, err := s.history.GetGame(s.ctx, &historySvc.GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Nil(ledger.Game)

	// Announcement struck through
	s.Require().NotEmpty(s.updated)
	s.Contains(s.updated[len(s.updated)-1].text, "scuttled")
}

func (s *SchedulerTestSuite) reschedule(user, selector string, hour, minute int) *RescheduleOutput {
	to, err := models.NewTimeOfDay(hour, minute)
	s.Require().NoError(err)

	out, err := s.service.Reschedule(s.ctx, &RescheduleInput{
		UserID:    user,
		ChannelID: "channel-1",
		Selector:  selector,
		To:        to,
	})
	s.Require().NoError(err)
	return out
}

func (s *SchedulerTestSuite) TestRescheduleOwnGame() {
	s.initiate("alice", "game at 3pm")

	out := s.reschedule("alice", "", 16, 0)
	s.Require().Equal(RescheduleMoved, out.Outcome)
	s.Equal(16, out.Game.When.Hour())
	s.Equal(models.GameStateScheduled, out.Game.State)
}

func (s *SchedulerTestSuite) TestRescheduleSelectors() {
	s.initiate("alice", "towerfall game at 15:00")
	s.initiate("bob", "fifa game at 18:00")

	// By explicit time
	out := s.reschedule("alice", "15:00", 16, 0)
	s.Require().Equal(RescheduleMoved, out.Outcome)
	s.Equal("towerfall game", out.Game.Description)

	// By description fragment
	out = s.reschedule("bob", "fifa", 19, 0)
	s.Require().Equal(RescheduleMoved, out.Outcome)
	s.Equal("fifa game", out.Game.Description)

	// Unknown selector
	out = s.reschedule("alice", "chess", 20, 0)
	s.Equal(RescheduleNoMatch, out.Outcome)
}

func (s *SchedulerTestSuite) TestRescheduleAmbiguousOwnGames() {
	s.initiate("alice", "first game at 10:00")
	s.initiate("alice", "second game at 12:00")

	out := s.reschedule("alice", "", 16, 0)
	s.Equal(RescheduleAmbiguous, out.Outcome)
	s.Equal(2, out.Matches)
}

func (s *SchedulerTestSuite) TestRescheduleRequiresCreator() {
	s.initiate("alice", "game at 3pm")

	out := s.reschedule("bob", "game", 16, 0)
	s.Equal(RescheduleNotCreator, out.Outcome)
}

func (s *SchedulerTestSuite) TestRescheduleConflict() {
	s.initiate("alice", "first game at 15:00")
	s.initiate("bob", "second game at 17:00")

	out := s.reschedule("bob", "second", 15, 10)
	s.Equal(RescheduleConflict, out.Outcome)
	s.Require().NotNil(out.Conflict)
	s.Equal("first game", out.Conflict.Description)
}

func (s *SchedulerTestSuite) TestListGamesInStartOrder() {
	s.initiate("alice", "late game at 20:00")
	s.initiate("bob", "early game at 11:00")

	out, err := s.service.ListGames(s.ctx, &ListGamesInput{ChannelID: "channel-1"})
	s.Require().NoError(err)
	s.Require().Len(out.Games, 2)
	s.Equal("early game", out.Games[0].Description)
	s.Equal("late game", out.Games[1].Description)
}

func (s *SchedulerTestSuite) TestGameByMessage() {
	created := s.initiate("alice", "game at 3pm")

	out, err := s.service.GameByMessage(s.ctx, &GameByMessageInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Require().NotNil(out.Game)
	s.Equal(created.Game.ID, out.Game.ID)

	out, err = s.service.GameByMessage(s.ctx, &GameByMessageInput{MessageID: "missing"})
	s.Require().NoError(err)
	s.Nil(out.Game)
}

func (s *SchedulerTestSuite) tick() *TickOutput {
	out, err := s.service.Tick(s.ctx, &TickInput{})
	s.Require().NoError(err)
	return out
}

func (s *SchedulerTestSuite) TestTickLifecycleProgression() {
	s.initiate("alice", "game at 15:00")

	// Well before kickoff: nothing moves
	out := s.tick()
	s.Equal(0, out.Advanced)

	// Inside the 5 minute warmup window: scheduled -> active
	s.now = time.Date(2025, 6, 2, 14, 56, 0, 0, time.UTC)
	out = s.tick()
	s.Equal(1, out.Advanced)
	s.Require().Len(s.sent, 2)
	s.Contains(s.sent[1].text, "is starting")

	// Repeat tick at the same instant: idempotent
	out = s.tick()
	s.Equal(0, out.Advanced)

	// Past the play window: active -> finished (default category has
	// no stat kinds, so no vote prompt)
	s.now = time.Date(2025, 6, 2, 15, 26, 0, 0, time.UTC)
	out = s.tick()
	s.Equal(1, out.Advanced)
	s.Len(s.sent, 2)

	// Past 12 hours from the announcement: finished -> dead, evicted
	s.now = time.Date(2025, 6, 2, 22, 1, 0, 0, time.UTC)
	out = s.tick()
	s.Equal(1, out.Advanced)
	s.Equal(1, out.Evicted)

	list, err := s.repo.ListGames(s.ctx, &gameRepo.ListGamesInput{})
	s.Require().NoError(err)
	s.Empty(list.Games)

	// The ledger still remembers the game
	ledger, err := s.history.GetGame(s.ctx, &historySvc.GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.NotNil(ledger.Game)

	// Ticking the empty live set is a no-op
	out = s.tick()
	s.Equal(0, out.Advanced)
}

func (s *SchedulerTestSuite) TestTickNobodyComing() {
	created := s.initiate("alice", "game at 15:00")

	_, err := s.service.Leave(s.ctx, &LeaveInput{UserID: "alice", GameID: created.Game.ID})
	s.Require().NoError(err)

	s.now = time.Date(2025, 6, 2, 14, 56, 0, 0, time.UTC)
	s.tick()

	s.Require().NotEmpty(s.sent)
	s.Contains(s.sent[len(s.sent)-1].text, "nobody's coming")
}

func (s *SchedulerTestSuite) TestTickFollowOnHint() {
	s.initiate("alice", "first game at 15:00")
	// Starts 3 minutes after the first ends (15:25)
	s.initiate("bob", "second game at 15:28")

	s.now = time.Date(2025, 6, 2, 14, 56, 0, 0, time.UTC)
	s.tick()

	kickoff := s.sent[len(s.sent)-1].text
	s.Contains(kickoff, "first game is starting")
	s.Contains(kickoff, "second game")
	s.Contains(kickoff, "15:28")
}

func (s *SchedulerTestSuite) TestTickVotePromptForStatCategories() {
	out, err := s.service.Initiate(s.ctx, &InitiateInput{
		UserID:      "alice",
		ChannelID:   "channel-tf",
		ChannelName: "towerfall-lounge",
		Text:        "towers at 15:00",
	})
	s.Require().NoError(err)
	s.Require().Equal(InitiateCreated, out.Outcome)

	s.now = time.Date(2025, 6, 2, 14, 56, 0, 0, time.UTC)
	s.tick()

	s.now = time.Date(2025, 6, 2, 15, 31, 0, 0, time.UTC)
	s.tick()

	prompt := s.sent[len(s.sent)-1].text
	s.Contains(prompt, "<@alice>")
	s.Contains(strings.ToLower(prompt), "ranking")
}
