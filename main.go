package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"giveabot/cmd"
	"giveabot/config"
	"giveabot/storage"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Optional .env for local development; ignored when absent
	_ = godotenv.Load()

	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.WithError(err).Fatal("Migration error")
		}
		return
	}

	// Normal bot operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: giveabot migrate [up|down|status] [args...]")
	}

	cfg, err := config.Load(cmd.ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Backend != config.StorageBackendPostgres {
		return fmt.Errorf("migrations require the postgres storage backend, configured backend is %q", cfg.Storage.Backend)
	}

	command := os.Args[2]
	switch command {
	case "up":
		return storage.MigrateUp(cfg.Storage.DatabaseURL)
	case "down":
		steps := 1
		if len(os.Args) > 3 {
			steps, err = strconv.Atoi(os.Args[3])
			if err != nil {
				return fmt.Errorf("invalid step count %q", os.Args[3])
			}
		}
		return storage.MigrateDown(cfg.Storage.DatabaseURL, steps)
	case "status":
		return storage.MigrateStatus(cfg.Storage.DatabaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
