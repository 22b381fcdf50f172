package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pantry-monolith/internal/bot"
	"pantry-monolith/internal/chat"
	"pantry-monolith/internal/core"
	"pantry-monolith/internal/i18n"
	"pantry-monolith/internal/logger"
	"pantry-monolith/internal/store"
	"pantry-monolith/internal/web"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()

	logger.Init("pantry-monolith", os.Getenv("ENV") != "production")
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	dbPath := getEnv("DB_PATH", "pantry.db")
	port := getEnv("PORT", "8080")
	publicURL := getEnv("PUBLIC_URL", "http://localhost:"+port)
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	cronSecret := os.Getenv("CRON_SECRET")

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "dev-secret-change-in-production"
		log.Warn().Msg("SESSION_SECRET not set, using insecure default")
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()
	log.Info().Str("db_path", dbPath).Msg("database initialized")

	service := core.NewService(db)

	translator, err := i18n.NewTranslator("locales", "en")
	if err != nil {
		log.Warn().Err(err).Msg("failed to load locales, falling back to keys")
		translator = i18n.NewFallback("en")
	}

	interpreter := chat.NewInterpreter(service, translator)

	var notifier core.Notifier
	var telegramBot *bot.Bot
	if botToken != "" {
		telegramBot, err = bot.NewBot(botToken, service, interpreter, publicURL, sessionSecret, translator)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize telegram bot, continuing without it")
		} else {
			notifier = telegramBot
			go telegramBot.Start()
		}
	} else {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	server, err := web.NewServer(service, sessionSecret, cronSecret, publicURL, translator, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize web server")
	}

	// Scheduled scan, on top of the external cron trigger. 0 disables it.
	scanCtx, cancelScan := context.WithCancel(context.Background())
	defer cancelScan()
	scanMinutes, _ := strconv.Atoi(getEnv("SCAN_INTERVAL_MINUTES", "15"))
	if scanMinutes > 0 && notifier != nil {
		go service.StartScanWorker(scanCtx, time.Duration(scanMinutes)*time.Minute, notifier, translator)
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("public_url", publicURL).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	cancelScan()
	if telegramBot != nil {
		telegramBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("shutdown complete")
}
