package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/scrubdub/hewbot/internal/models"
)

const (
	// Key prefixes for Redis
	historicKeyPrefix = "historic:"
	historicGamesKey  = "historic_games"
)

// ErrGameNotFound is returned when a historic game is not found
var ErrGameNotFound = errors.New("historic game not found")

// Config holds configuration for the Redis history repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed history repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// SaveGame stores or updates a historic game record
func (r *redisRepository) SaveGame(ctx context.Context, input *SaveGameInput) error {
	if input == nil || input.Game == nil {
		return errors.New("input and game cannot be nil")
	}

	game := input.Game

	if game.MessageID == "" {
		return errors.New("historic game message ID cannot be empty")
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal historic game: %w", err)
	}

	// Store the record and index it by creation time so listing
	// comes back in play order
	pipe := r.client.Pipeline()

	gameKey := fmt.Sprintf("%s%s", historicKeyPrefix, game.MessageID)
	pipe.Set(ctx, gameKey, gameJSON, 0)

	pipe.ZAdd(ctx, historicGamesKey, redis.Z{
		Score:  float64(game.CreatedAt.Unix()),
		Member: game.MessageID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save historic game: %w", err)
	}

	return nil
}

// GetGame retrieves a historic game by its announcement message ID
func (r *redisRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.HistoricGame, error) {
	if input == nil || input.MessageID == "" {
		return nil, errors.New("input and message ID cannot be empty")
	}

	gameKey := fmt.Sprintf("%s%s", historicKeyPrefix, input.MessageID)
	gameJSON, err := r.client.Get(ctx, gameKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get historic game: %w", err)
	}

	var game models.HistoricGame
	if err := json.Unmarshal([]byte(gameJSON), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal historic game: %w", err)
	}

	return &game, nil
}

// DeleteGame removes a historic game record
func (r *redisRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.MessageID == "" {
		return errors.New("input and message ID cannot be empty")
	}

	pipe := r.client.Pipeline()

	gameKey := fmt.Sprintf("%s%s", historicKeyPrefix, input.MessageID)
	pipe.Del(ctx, gameKey)
	pipe.ZRem(ctx, historicGamesKey, input.MessageID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete historic game: %w", err)
	}

	return nil
}

// ListGames retrieves all historic games in chronological order
func (r *redisRepository) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	messageIDs, err := r.client.ZRange(ctx, historicGamesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list historic games: %w", err)
	}

	if len(messageIDs) == 0 {
		return &ListGamesOutput{Games: []*models.HistoricGame{}}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(messageIDs))
	for _, messageID := range messageIDs {
		gameKey := fmt.Sprintf("%s%s", historicKeyPrefix, messageID)
		cmds = append(cmds, pipe.Get(ctx, gameKey))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to fetch historic games: %w", err)
	}

	games := make([]*models.HistoricGame, 0, len(messageIDs))
	for _, cmd := range cmds {
		gameJSON, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Index entry with no backing record, skip it
				continue
			}
			return nil, fmt.Errorf("failed to fetch historic game: %w", err)
		}

		var game models.HistoricGame
		if err := json.Unmarshal([]byte(gameJSON), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal historic game: %w", err)
		}

		games = append(games, &game)
	}

	return &ListGamesOutput{Games: games}, nil
}
