package main

import (
	"context"
	"time"

	"anoa.com/skillexchange/internal/bootstrap"
	"anoa.com/skillexchange/internal/config"
	"anoa.com/skillexchange/internal/server"
	"anoa.com/skillexchange/pkg/database"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Component("main").Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Configure(cfg.AppEnv)
	log := logger.Component("main")

	db := database.Connect()

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := bootstrap.SeedCategories(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed categories")
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin user")
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, realtime notifications and rate limiting disabled")
			redisClient = nil
		}
		cancel()
	} else {
		log.Warn().Msg("REDIS_URL not set, realtime notifications and rate limiting disabled")
	}

	srv := server.NewServer(cfg, db, redisClient)

	log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("starting server")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
