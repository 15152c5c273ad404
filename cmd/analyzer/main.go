// Command analyzer replays every registered algorithm over the stored
// history of one draw schedule, prints the comparison table and records
// the per-point results as performance rows for the training loop.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/config"
	"github.com/lotobonheur/predictor/internal/algorithms"
	"github.com/lotobonheur/predictor/internal/backtest"
	"github.com/lotobonheur/predictor/internal/database"
	"github.com/lotobonheur/predictor/internal/tuning"
	"github.com/lotobonheur/predictor/models"
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

	drawName := cfg.DefaultDraw
	if len(os.Args) > 1 {
		drawName = os.Args[1]
	}

	history, err := db.GetDraws(drawName, cfg.HistoryLimit)
	if err != nil {
		log.Fatal().Err(err).Str("draw", drawName).Msg("history fetch failed")
	}
	if len(history) < backtest.DefaultWindowSize+1 {
		log.Fatal().Int("draws", len(history)).Msg("not enough stored draws to backtest")
	}

	fmt.Printf("Backtest %s sur %d tirages\n", drawName, len(history))
	fmt.Printf("%-25s %10s %6s %6s %12s\n", "Algorithme", "Précision", "Max", "Min", "Consistance")

	registry := algorithms.NewRegistry()
	for _, algo := range registry.All() {
		result := backtest.Run(func(h []models.DrawResult) models.Prediction {
			return algorithms.Run(algo, h)
		}, algo.Name(), history, backtest.DefaultWindowSize)

		fmt.Printf("%-25s %9.2f%% %6d %6d %12.2f\n",
			result.Algorithm, result.Accuracy, result.BestMatch, result.WorstMatch, result.Consistency)

		recordResults(db, algo, history)
	}
}

// recordResults evaluates the algorithm's fresh prediction at each recent
// test point and appends the performance rows the tuner trains on.
func recordResults(db *database.DB, algo algorithms.Algorithm, history []models.DrawResult) {
	points := len(history) - backtest.DefaultWindowSize
	if points > 20 {
		points = 20
	}
	for i := 0; i < points; i++ {
		window := history[i+1 : i+1+backtest.DefaultWindowSize]

		start := time.Now()
		pred := algorithms.Run(algo, window)
		elapsed := time.Since(start).Milliseconds()

		rec := tuning.Evaluate(pred, history[i], elapsed)
		rec.Algorithm = algo.Name() // strip any degraded-mode suffix
		if err := db.InsertPerformance(rec); err != nil {
			log.Error().Err(err).Str("algorithm", algo.Name()).Msg("recording performance failed")
			return
		}
	}
}
