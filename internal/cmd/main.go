package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production; env comes from the orchestrator there.
		logging.Init(logging.DefaultConfig())
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logging.Init(logging.DefaultConfig())
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.loggingConfig())

	database, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := setupServices(ctx, database, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	go services.Gateway.Start(ctx)
	go services.Janitor.Run(ctx)

	server := setupServer(services.Gateway)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	cancel()
	services.Engine.Shutdown()
	services.Gateway.Close()
}
