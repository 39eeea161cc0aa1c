package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/FACorreiaa/go-ai-trip-planner/app/db"
	"github.com/FACorreiaa/go-ai-trip-planner/config"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/assistant"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/auth"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/destinations"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/enrichment"
	generativeAI "github.com/FACorreiaa/go-ai-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/trip"
)

// Store drivers accepted in store.driver.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Mongo *mongo.Client
	Redis *redis.Client

	Sessions    *auth.SessionProvider
	Tokens      *auth.TokenService
	TripService *trip.ServiceImpl
	Jobs        *trip.JobRegistry
	Enrichment  *enrichment.Service

	AuthHandler         *auth.HandlerImpl
	TripHandler         *trip.HandlerImpl
	EnrichmentHandler   *enrichment.HandlerImpl
	DestinationsHandler *destinations.HandlerImpl
}

// NewContainer connects the configured store and wires every service.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	store, err := c.openStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Repositories.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, enrichment uses the in-process cache only", slog.Any("error", err))
	}
	c.Redis = redisClient

	if err := c.wire(store); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) openStore(ctx context.Context) (trip.DocumentStore, error) {
	cfg, logger := c.Config, c.Logger
	switch strings.ToLower(cfg.Store.Driver) {
	case DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.Repositories.Mongo, logger)
		if err != nil {
			return nil, err
		}
		c.Mongo = client
		return trip.NewMongoStore(db, logger), nil

	case DriverPostgres, "":
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return nil, err
		}
		pool, err := database.Init(ctx, dbConfig.ConnectionURL, cfg.Repositories.Postgres, logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		if !database.WaitForDB(ctx, pool, logger) {
			return nil, fmt.Errorf("database not ready")
		}
		return trip.NewPostgresStore(pool, logger), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (c *Container) wire(store trip.DocumentStore) error {
	cfg, logger := c.Config, c.Logger

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}
	c.Tokens = tokens
	c.Sessions = auth.NewSessionProvider(cfg.OAuth.BaseURL, cfg.JWT.TTL, logger)
	auth.ConfigureProviders(cfg.OAuth, isHTTPS(cfg.OAuth.BaseURL))

	generator := NewGenerator(cfg, logger)

	c.TripService = trip.NewService(trip.NewRepository(store, logger), generator, c.Sessions, trip.Config{
		MaxDays:     cfg.Generation.MaxDays,
		Retry:       trip.GenerationRetryPolicy(),
		AuthTimeout: cfg.Generation.AuthTimeout,
	}, logger)
	c.Jobs = trip.NewJobRegistry(c.TripService, cfg.Generation.JobTTL, logger)

	var tier enrichment.SecondTier
	if c.Redis != nil {
		tier = enrichment.NewRedisTier(c.Redis, cfg.Repositories.Redis.TTL)
	}
	c.Enrichment = enrichment.NewService(cfg.Enrichment, enrichment.DefaultEndpoints(), tier, logger)

	finder := destinations.NewFinder(generator, c.Enrichment, trip.GenerationRetryPolicy(), logger)

	c.AuthHandler = auth.NewHandler(c.Sessions, c.Tokens, logger)
	c.TripHandler = trip.NewHandler(c.TripService, c.Jobs, c.Sessions, c.Enrichment, assistant.NewService(generator, logger), logger)
	c.EnrichmentHandler = enrichment.NewHandler(c.Enrichment, logger)
	c.DestinationsHandler = destinations.NewHandler(finder, logger)
	return nil
}

// NewGenerator builds the failover client over the Gemini backend.
func NewGenerator(cfg *config.Config, logger *slog.Logger) *generativeAI.FailoverClient {
	backend := generativeAI.NewGeminiBackend(logger)
	if cfg.GenAI.Temperature > 0 {
		t := cfg.GenAI.Temperature
		backend.Temperature = &t
	}
	keys := cfg.GenAI.Credentials()
	creds := make([]generativeAI.Credential, 0, len(keys))
	for _, k := range keys {
		creds = append(creds, generativeAI.Credential(k))
	}
	if len(creds) == 0 {
		logger.Warn("No model API keys configured, generation requests will fail")
	}
	return generativeAI.NewFailoverClient(backend, creds, cfg.GenAI.Models,
		generativeAI.Classifier{StrictClientErrors: cfg.GenAI.StrictClientErrors}, logger)
}

func isHTTPS(base string) bool {
	u, err := url.Parse(base)
	return err == nil && u.Scheme == "https"
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Jobs != nil {
		c.Jobs.Shutdown()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(context.Background()); err != nil {
			c.Logger.Warn("Failed to disconnect MongoDB", slog.Any("error", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close Redis client", slog.Any("error", err))
		}
	}
	c.Logger.Info("Container resources released")
}
