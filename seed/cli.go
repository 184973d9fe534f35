package seed

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"shelf/app"
)

// Config holds CLI configuration
type Config struct {
	SeedData  bool
	ClearData bool
}

// ParseFlags parses command line flags and returns CLI config
func ParseFlags() *Config {
	config := &Config{}
	flag.BoolVar(&config.SeedData, "seed-data", false, "Populate the contact database with sample data")
	flag.BoolVar(&config.ClearData, "clear-data", false, "Remove every contact from the database")
	flag.Parse()
	return config
}

// HandleDataOperations runs the requested seed or clear operation.
// Returns true if the application should continue running, false if it should exit.
func HandleDataOperations(config *Config, application *app.Application, logger *slog.Logger) bool {
	if !config.ClearData && !config.SeedData {
		return true
	}

	container := application.GetContainer()
	seeder := NewSeeder(container.ContactService, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if config.ClearData {
		logger.Info("Clearing all contacts...")
		if err := seeder.ClearAll(ctx); err != nil {
			logger.Error("Failed to clear contacts", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("All contacts cleared")
	}

	if config.SeedData {
		logger.Info("Populating sample contacts...")
		if err := seeder.Populate(ctx); err != nil {
			logger.Error("Failed to populate sample contacts", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Sample contacts populated")
	}

	return false
}
