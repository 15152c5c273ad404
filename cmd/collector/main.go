// Command collector pulls the latest published draw results from the
// external results API and stores them, skipping draws already recorded.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/config"
	"github.com/lotobonheur/predictor/internal/client"
	"github.com/lotobonheur/predictor/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

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

	month := time.Now().Format("2006-01")
	if len(os.Args) > 1 {
		month = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	results := client.New(cfg.ResultsAPIURL, time.Duration(cfg.RequestTimeout)*time.Second)
	draws, err := results.FetchResults(ctx, month)
	if err != nil {
		log.Fatal().Err(err).Str("month", month).Msg("fetching draw results failed")
	}

	stored := 0
	for _, d := range draws {
		if err := db.InsertDraw(d); err != nil {
			log.Error().Err(err).Str("draw", d.DrawName).Time("date", d.DrawDate).
				Msg("storing draw failed")
			continue
		}
		stored++
	}

	log.Info().Str("month", month).Int("fetched", len(draws)).Int("stored", stored).
		Msg("collection complete")
}
