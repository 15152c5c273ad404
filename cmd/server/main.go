package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/config"
	"github.com/lotobonheur/predictor/internal/algorithms"
	"github.com/lotobonheur/predictor/internal/cache"
	"github.com/lotobonheur/predictor/internal/database"
	"github.com/lotobonheur/predictor/internal/ensemble"
	"github.com/lotobonheur/predictor/internal/server"
	"github.com/lotobonheur/predictor/internal/tuning"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	historyCache := cache.New(
		cfg.CacheMaxEntries,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		time.Minute,
	)
	defer historyCache.Stop()

	srv := server.New(server.Options{
		Store:        db,
		Trainer:      tuning.New(db),
		Cache:        historyCache,
		Registry:     algorithms.NewRegistry(),
		Ensemble:     ensemble.New(),
		JWTSecret:    cfg.JWTSecret,
		HistoryLimit: cfg.HistoryLimit,
	})

	log.Info().Str("addr", cfg.ListenAddr).Msg("starting API server")
	if err := srv.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
