package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/common/clock"
	"github.com/scrubdub/hewbot/internal/common/uuid"
	"github.com/scrubdub/hewbot/internal/handlers/discord"
	"github.com/scrubdub/hewbot/internal/metrics"
	gameRepo "github.com/scrubdub/hewbot/internal/repositories/game"
	historyRepo "github.com/scrubdub/hewbot/internal/repositories/history"
	playerRepo "github.com/scrubdub/hewbot/internal/repositories/player"
	historyService "github.com/scrubdub/hewbot/internal/services/history"
	"github.com/scrubdub/hewbot/internal/services/rating"
	"github.com/scrubdub/hewbot/internal/services/scheduler"
)

func main() {
	// Load .env if present; real environment wins
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	// Test Redis connection
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	ctx := context.Background()

	// Initialize repositories
	games, err := gameRepo.NewRedis(&gameRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create game repository: %v", err)
	}

	ledger, err := historyRepo.NewRedis(&historyRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create history repository: %v", err)
	}

	players, err := playerRepo.NewRedis(&playerRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create player repository: %v", err)
	}

	// Metrics registry and endpoint
	registry := prometheus.NewRegistry()
	botMetrics := metrics.New(registry)

	metricsAddr := getEnv("METRICS_ADDR", ":9090")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	// Initialize the rating engine and history service
	engine := rating.NewEngine(&rating.Config{
		KFactor:   getEnvFloat("RATING_K_FACTOR", 0),
		ScrubBase: getEnvFloat("RATING_SCRUB_BASE", 0),
		MinGames:  getEnvInt("RATING_MIN_GAMES", 0),
	})

	historySvc, err := historyService.New(ctx, &historyService.Config{
		Repo:          ledger,
		Engine:        engine,
		NegativeStats: category.NegativeStats(),
	})
	if err != nil {
		log.Fatalf("Failed to create history service: %v", err)
	}

	// Get Discord token from environment
	discordToken := getEnv("DISCORD_TOKEN", "")
	if discordToken == "" {
		log.Fatal("DISCORD_TOKEN environment variable is required")
	}

	session, err := discordgo.New("Bot " + discordToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	// Initialize the scheduling engine
	schedulerSvc, err := scheduler.New(ctx, &scheduler.Config{
		Repo:      games,
		History:   historySvc,
		Messenger: discord.NewMessenger(session),
		Clock:     &clock.DefaultClock{},
		UUID:      uuid.New(),
		Metrics:   botMetrics,
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler service: %v", err)
	}

	// Initialize Discord bot
	bot, err := discord.New(&discord.Config{
		Session:   session,
		Trigger:   getEnv("TRIGGER_WORD", "hew"),
		Scheduler: schedulerSvc,
		History:   historySvc,
		Players:   players,
		Metrics:   botMetrics,
	})
	if err != nil {
		log.Fatalf("Failed to create Discord bot: %v", err)
	}

	// Start the bot
	if err := bot.Start(ctx); err != nil {
		log.Fatalf("Failed to start Discord bot: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shutdown the bot
	if err := bot.Stop(); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("Bot has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Ignoring bad %s value %q", key, value)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Ignoring bad %s value %q", key, value)
		return defaultValue
	}
	return parsed
}
