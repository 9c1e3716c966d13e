// Command carousel tails the live photo feed from a booth server and logs
// every change, for kiosk displays that mirror the gallery.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/config"
	"photobooth-backend/internal/feedsync"
	"photobooth-backend/internal/models"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "booth server base URL")
	configPath := flag.String("config", "", "optional config file; its feed section supplies poll tuning")
	pollInterval := flag.Duration("poll-interval", 0, "fallback poll period, overrides config")
	backupProbability := flag.Float64("backup-poll-probability", 0, "chance of polling per tick while the push channel is up, overrides config")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	feedCfg := feedsync.Config{
		BaseURL:               *serverURL,
		PollInterval:          *pollInterval,
		BackupPollProbability: *backupProbability,
	}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if feedCfg.PollInterval <= 0 {
			feedCfg.PollInterval = time.Duration(cfg.Feed.PollIntervalSeconds) * time.Second
		}
		if feedCfg.BackupPollProbability <= 0 {
			feedCfg.BackupPollProbability = cfg.Feed.BackupPollProbability
		}
	}

	client := feedsync.NewClient(feedCfg)

	unsubscribe := client.Subscribe(func(feed []models.FeedPhoto) {
		top := feed
		if len(top) > 5 {
			top = top[:5]
		}
		for _, photo := range top {
			log.Info().
				Int64("id", photo.ID).
				Str("type", string(photo.Kind)).
				Int("likes", photo.Likes).
				Time("created_at", photo.CreatedAt).
				Msg("Feed updated")
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load initial feed")
	}
	defer client.Close()

	log.Info().
		Str("server", *serverURL).
		Int("photos", len(client.Snapshot())).
		Msg("Carousel started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Carousel stopped")
}
