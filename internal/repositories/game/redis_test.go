package game

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/scrubdub/hewbot/internal/models"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	repo    Repository
	testNow time.Time
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo

	s.testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) testGame(id string) *models.Game {
	return &models.Game{
		ID:          id,
		Category:    "default",
		ChannelID:   "test-channel-id",
		When:        time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC),
		PlayTime:    25,
		Description: "big game",
		CreatorID:   "test-creator-id",
		Players:     []string{"test-creator-id"},
		MaxPlayers:  4,
		State:       models.GameStateScheduled,
		Message:     models.MessageRef{ChannelID: "test-channel-id", MessageID: "msg-" + id},
		CreatedAt:   s.testNow,
	}
}

func (s *RedisRepositoryTestSuite) TestSaveAndGetGame() {
	game := s.testGame("test-game-id")

	err := s.repo.SaveGame(context.Background(), &SaveGameInput{
		Game: game,
	})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetGame(context.Background(), &GetGameInput{
		GameID: "test-game-id",
	})
	s.Require().NoError(err)
	s.Require().NotNil(retrieved)

	s.Equal("test-game-id", retrieved.ID)
	s.Equal("default", retrieved.Category)
	s.Equal("big game", retrieved.Description)
	s.Equal([]string{"test-creator-id"}, retrieved.Players)
	s.Equal(models.GameStateScheduled, retrieved.State)
	s.Equal("msg-test-game-id", retrieved.Message.MessageID)
	s.Equal(game.When.Unix(), retrieved.When.Unix())
}

func (s *RedisRepositoryTestSuite) TestGetGameNotFound() {
	_, err := s.repo.GetGame(context.Background(), &GetGameInput{
		GameID: "missing",
	})
	s.Require().ErrorIs(err, ErrGameNotFound)
}

func (s *RedisRepositoryTestSuite) TestDeleteGame() {
	game := s.testGame("test-game-id")

	err := s.repo.SaveGame(context.Background(), &SaveGameInput{Game: game})
	s.Require().NoError(err)

	err = s.repo.DeleteGame(context.Background(), &DeleteGameInput{
		GameID: "test-game-id",
	})
	s.Require().NoError(err)

	_, err = s.repo.GetGame(context.Background(), &GetGameInput{
		GameID: "test-game-id",
	})
	s.Require().ErrorIs(err, ErrGameNotFound)

	list, err := s.repo.ListGames(context.Background(), &ListGamesInput{})
	s.Require().NoError(err)
	s.Empty(list.Games)
}

func (s *RedisRepositoryTestSuite) TestListGames() {
	for _, id := range []string{"game-a", "game-b", "game-c"} {
		err := s.repo.SaveGame(context.Background(), &SaveGameInput{
			Game: s.testGame(id),
		})
		s.Require().NoError(err)
	}

	list, err := s.repo.ListGames(context.Background(), &ListGamesInput{})
	s.Require().NoError(err)
	s.Len(list.Games, 3)

	ids := make([]string, 0, len(list.Games))
	for _, g := range list.Games {
		ids = append(ids, g.ID)
	}
	s.ElementsMatch([]string{"game-a", "game-b", "game-c"}, ids)
}
