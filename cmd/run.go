package cmd

import (
	"context"
	"fmt"
	"os"

	"giveabot/bot"
	"giveabot/config"
	"giveabot/service"
	"giveabot/storage"

	log "github.com/sirupsen/logrus"
)

const defaultConfigPath = "config.yaml"

// ConfigPath returns the configuration file path, honoring the
// GIVEABOT_CONFIG environment variable
func ConfigPath() string {
	if path := os.Getenv("GIVEABOT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Run initializes and starts the application, blocking until ctx is canceled
func Run(ctx context.Context) error {
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	log.SetLevel(level)

	log.WithField("backend", cfg.Storage.Backend).Info("Opening state store")
	store, closeStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer closeStore()

	discordBot, err := bot.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	svc := service.NewGiveawayService(store, discordBot, cfg)

	if err := discordBot.Start(ctx, svc); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}

	<-ctx.Done()

	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Warn("Error closing Discord bot")
	}
	log.Info("Shutdown completed")
	return nil
}
