package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/models"
	historyRepo "github.com/scrubdub/hewbot/internal/repositories/history"
	"github.com/scrubdub/hewbot/internal/services/rating"
)

type HistoryServiceTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	repo    historyRepo.Repository
	service Service
	ctx     context.Context
	testNow time.Time
}

func (s *HistoryServiceTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := historyRepo.NewRedis(&historyRepo.Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo

	s.ctx = context.Background()
	s.testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	s.service = s.newService()
}

func (s *HistoryServiceTestSuite) newService() Service {
	svc, err := New(s.ctx, &Config{
		Repo:          s.repo,
		Engine:        rating.NewEngine(&rating.Config{MinGames: 1}),
		NegativeStats: category.NegativeStats(),
	})
	s.Require().NoError(err)
	return svc
}

func (s *HistoryServiceTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestHistoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HistoryServiceTestSuite))
}

func (s *HistoryServiceTestSuite) liveGame(messageID string, players ...string) *models.Game {
	return &models.Game{
		ID:         "game-" + messageID,
		Category:   "towerfall",
		ChannelID:  "channel-1",
		When:       s.testNow.Add(5 * time.Hour),
		PlayTime:   25,
		CreatorID:  players[0],
		Players:    players,
		MaxPlayers: 4,
		State:      models.GameStateScheduled,
		Message:    models.MessageRef{ChannelID: "channel-1", MessageID: messageID},
		CreatedAt:  s.testNow,
	}
}

func (s *HistoryServiceTestSuite) addGame(messageID string, players ...string) {
	err := s.service.AddGame(s.ctx, &AddGameInput{Game: s.liveGame(messageID, players...)})
	s.Require().NoError(err)
}

func (s *HistoryServiceTestSuite) vote(messageID, stat, user, voter string) *RegisterStatOutput {
	out, err := s.service.RegisterStat(s.ctx, &RegisterStatInput{
		MessageID: messageID,
		User:      user,
		Voter:     voter,
		Stat:      stat,
	})
	s.Require().NoError(err)
	return out
}

func (s *HistoryServiceTestSuite) TestAddGameIdempotent() {
	s.addGame("msg-1", "alice", "bob")
	s.addGame("msg-1", "alice", "bob")

	out, err := s.service.GetGame(s.ctx, &GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Require().NotNil(out.Game)
	s.Equal([]string{"alice", "bob"}, out.Game.Players)

	list, err := s.repo.ListGames(s.ctx, &historyRepo.ListGamesInput{})
	s.Require().NoError(err)
	s.Len(list.Games, 1)
}

func (s *HistoryServiceTestSuite) TestLoadsLedgerFromRepository() {
	s.addGame("msg-1", "alice", "bob")

	reloaded := s.newService()
	out, err := reloaded.GetGame(s.ctx, &GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Require().NotNil(out.Game)
	s.Equal("towerfall", out.Game.Category)
}

func (s *HistoryServiceTestSuite) TestCancelGame() {
	s.addGame("msg-1", "alice", "bob")

	err := s.service.CancelGame(s.ctx, &CancelGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)

	out, err := s.service.GetGame(s.ctx, &GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Nil(out.Game)

	list, err := s.repo.ListGames(s.ctx, &historyRepo.ListGamesInput{})
	s.Require().NoError(err)
	s.Empty(list.Games)
}

func (s *HistoryServiceTestSuite) TestSyncRoster() {
	s.addGame("msg-1", "alice")

	err := s.service.SyncRoster(s.ctx, &SyncRosterInput{
		MessageID: "msg-1",
		Players:   []string{"alice", "bob", "carol"},
	})
	s.Require().NoError(err)

	out, err := s.service.GetGame(s.ctx, &GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob", "carol"}, out.Game.Players)

	err = s.service.SyncRoster(s.ctx, &SyncRosterInput{MessageID: "missing"})
	s.Require().ErrorIs(err, ErrGameNotFound)
}

func (s *HistoryServiceTestSuite) TestRegisterStatRequiresKnownGameAndVoter() {
	s.addGame("msg-1", "alice", "bob")

	out, err := s.service.RegisterStat(s.ctx, &RegisterStatInput{
		MessageID: "missing",
		User:      "alice",
		Voter:     "bob",
		Stat:      category.StatScrub,
	})
	s.Require().NoError(err)
	s.False(out.Registered)

	// Spectators cannot vote
	out = s.vote("msg-1", category.StatScrub, "alice", "mallory")
	s.False(out.Registered)

	out = s.vote("msg-1", category.StatScrub, "alice", "bob")
	s.True(out.Registered)
}

func (s *HistoryServiceTestSuite) TestRegisterStatDedupesAndRemoves() {
	s.addGame("msg-1", "alice", "bob")

	s.vote("msg-1", category.StatScrub, "alice", "bob")
	s.vote("msg-1", category.StatScrub, "alice", "bob")

	out, err := s.service.GetGame(s.ctx, &GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Len(out.Game.Stats, 1)

	removed, err := s.service.RegisterStat(s.ctx, &RegisterStatInput{
		MessageID: "msg-1",
		User:      "alice",
		Voter:     "bob",
		Remove:    true,
		Stat:      category.StatScrub,
	})
	s.Require().NoError(err)
	s.True(removed.Registered)

	out, err = s.service.GetGame(s.ctx, &GetGameInput{MessageID: "msg-1"})
	s.Require().NoError(err)
	s.Empty(out.Game.Stats)
}

func (s *HistoryServiceTestSuite) TestSummaryStats() {
	// alice wins both games, bob wins none and takes a scrub vote
	s.addGame("msg-1", "alice", "bob")
	s.vote("msg-1", category.StatTowerfallHeadhunters, "alice", "bob")
	s.vote("msg-1", category.StatScrub, "bob", "alice")

	s.addGame("msg-2", "alice", "bob")
	s.vote("msg-2", category.StatTowerfallHeadhunters, "alice", "bob")

	out, err := s.service.SummaryStats(s.ctx, &SummaryStatsInput{
		ChannelID: "channel-1",
	})
	s.Require().NoError(err)
	s.Require().Len(out.Tables, 1)

	table := out.Tables[0]
	s.Equal("", table.Mode)
	s.Require().Len(table.Lines, 2)

	// Ordered by win ratio
	s.Equal("alice", table.Lines[0].User)
	s.Equal("bob", table.Lines[1].User)

	alice := table.Lines[0]
	s.Equal(2, alice.Played)
	s.Equal(2, alice.GameWins)
	s.Equal(1.0, alice.WinRatio)
	s.Equal(2, alice.Counts[category.StatTowerfallHeadhunters])
	s.NotEmpty(alice.Rating)
	s.Len(alice.RecentDeltas, 2)

	bob := table.Lines[1]
	s.Equal(0, bob.GameWins)
	s.Equal(1, bob.Counts[category.StatScrub])
}

func (s *HistoryServiceTestSuite) TestSummaryStatsYearFilter() {
	s.addGame("msg-1", "alice", "bob")
	s.vote("msg-1", category.StatTowerfallHeadhunters, "alice", "bob")

	out, err := s.service.SummaryStats(s.ctx, &SummaryStatsInput{
		ChannelID: "channel-1",
		Year:      2019,
	})
	s.Require().NoError(err)
	s.Empty(out.Tables)
}

func (s *HistoryServiceTestSuite) TestSummaryStatsLimitSingleWin() {
	// fifa counts at most one positive vote per user per game
	game := s.liveGame("msg-1", "alice", "bob")
	game.Category = "fifa"
	err := s.service.AddGame(s.ctx, &AddGameInput{Game: game})
	s.Require().NoError(err)

	s.vote("msg-1", category.StatFifaWin, "alice", "bob")
	s.vote("msg-1", category.StatFifaWinPens, "alice", "bob")

	out, err := s.service.SummaryStats(s.ctx, &SummaryStatsInput{
		ChannelID: "channel-1",
	})
	s.Require().NoError(err)
	s.Require().Len(out.Tables, 1)

	alice := out.Tables[0].Lines[0]
	s.Equal("alice", alice.User)
	s.Equal(1, alice.Counts[category.StatFifaWin]+alice.Counts[category.StatFifaWinPens])
	s.Equal(1, alice.GameWins)
}

func (s *HistoryServiceTestSuite) TestSummaryStatsSplitsModes() {
	game := s.liveGame("msg-1", "alice", "bob")
	game.Mode = "compet"
	err := s.service.AddGame(s.ctx, &AddGameInput{Game: game})
	s.Require().NoError(err)
	s.vote("msg-1", category.StatTowerfallHeadhunters, "alice", "bob")

	s.addGame("msg-2", "alice", "bob")
	s.vote("msg-2", category.StatTowerfallHeadhunters, "bob", "alice")

	out, err := s.service.SummaryStats(s.ctx, &SummaryStatsInput{
		ChannelID: "channel-1",
	})
	s.Require().NoError(err)
	s.Require().Len(out.Tables, 2)

	// Default mode leads and is the only rated table
	s.Equal("", out.Tables[0].Mode)
	s.Equal("compet", out.Tables[1].Mode)
	s.NotEmpty(out.Tables[0].Lines[0].Rating)
	s.Empty(out.Tables[1].Lines[0].Rating)
}

func (s *HistoryServiceTestSuite) TestStandings() {
	s.addGame("msg-1", "alice", "bob")
	s.vote("msg-1", category.StatTowerfallHeadhunters, "alice", "bob")
	s.vote("msg-1", category.StatScrub, "alice", "bob")

	// No winner recorded, so this game is not rateable
	s.addGame("msg-2", "alice", "bob")

	out, err := s.service.Standings(s.ctx, &StandingsInput{ChannelID: "channel-1"})
	s.Require().NoError(err)

	alice := out.Standings.Players["alice"]
	bob := out.Standings.Players["bob"]
	s.Require().NotNil(alice)
	s.Require().NotNil(bob)

	// One rated game each, scrubbed winner gains a discounted delta
	s.Equal(1, alice.GamesPlayed)
	s.Equal(1509.0, alice.Rating)
	s.Equal(1490.0, bob.Rating)
	s.Equal("alice", out.Standings.Ranked[0].ID)
}

func (s *HistoryServiceTestSuite) TestUserRanking() {
	// alice 1/1, bob 1/2, carol 0/1
	s.addGame("msg-1", "alice", "bob")
	s.vote("msg-1", category.StatTowerfallHeadhunters, "alice", "bob")
	s.vote("msg-1", category.StatTowerfallHeadhunters, "bob", "alice")

	s.addGame("msg-2", "bob", "carol")

	// Moded games are ignored for ranking
	compet := s.liveGame("msg-3", "carol")
	compet.Mode = "compet"
	err := s.service.AddGame(s.ctx, &AddGameInput{Game: compet})
	s.Require().NoError(err)

	out, err := s.service.UserRanking(s.ctx, &UserRankingInput{ChannelID: "channel-1"})
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob", "carol"}, out.Users)
}
