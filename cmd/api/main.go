package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propertyops-backend/internal/app"
	"propertyops-backend/internal/config"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/infrastructure/metrics"
	"propertyops-backend/internal/interfaces/router"
	"propertyops-backend/internal/logger"
	"propertyops-backend/internal/scheduler"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("")
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Init(cfg.Env)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("no database url configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres open")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres handle")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	cancel()
	log.Info().Msg("postgres connected")
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis url")
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("redis connected")
	} else {
		log.Warn().Msg("REDIS_URL not set: sessions, audit feed and events are disabled")
	}

	svc := app.NewServices(cfg, db, rdb, metrics.New())
	fiberApp := router.New(cfg, svc)

	if cfg.CronEnabled {
		cr, err := scheduler.New(scheduler.Jobs(cfg, svc))
		if err != nil {
			log.Fatal().Err(err).Msg("scheduler")
		}
		cr.Start()
		defer cr.Stop()
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		_ = fiberApp.ShutdownWithTimeout(30 * time.Second)
	}()

	log.Info().Str("port", cfg.Port).Msgf("server running at http://localhost:%s (health: /health/json)", cfg.Port)
	if err := fiberApp.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
