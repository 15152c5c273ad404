// Command broadcast computes the day's ensemble prediction for one draw
// schedule and pushes it to a Telegram channel.
package main

import (
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/config"
	"github.com/lotobonheur/predictor/internal/database"
	"github.com/lotobonheur/predictor/internal/ensemble"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		log.Fatal().Msg("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required")
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

	drawName := cfg.DefaultDraw
	if len(os.Args) > 1 {
		drawName = os.Args[1]
	}

	history, err := db.GetDraws(drawName, cfg.HistoryLimit)
	if err != nil {
		log.Fatal().Err(err).Str("draw", drawName).Msg("history fetch failed")
	}

	pred := ensemble.New().Predict(history)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram bot init failed")
	}

	numbers := make([]string, len(pred.Numbers))
	for i, n := range pred.Numbers {
		numbers[i] = fmt.Sprintf("%d", n)
	}

	message := fmt.Sprintf(
		"🎰 *Prédiction %s*\n\nNuméros: *%s*\nConfiance: %.0f%%\n\n_%s_",
		drawName,
		strings.Join(numbers, " - "),
		pred.Confidence*100,
		strings.Join(pred.Factors, " · "),
	)

	msg := tgbotapi.NewMessage(cfg.TelegramChatID, message)
	msg.ParseMode = "Markdown"
	if _, err := bot.Send(msg); err != nil {
		log.Fatal().Err(err).Msg("sending prediction failed")
	}

	log.Info().Str("draw", drawName).Ints("numbers", pred.Numbers).
		Float64("confidence", pred.Confidence).Msg("prediction broadcast")
}
