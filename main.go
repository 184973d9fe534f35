package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"shelf/app"
	"shelf/seed"
)

// Embed the demo UI at compile time
//
//go:embed public/http/*
var staticFS embed.FS

func main() {
	logger := newLogger()
	slog.SetDefault(logger)

	cliConfig := seed.ParseFlags()

	application, err := app.NewApplicationWithStatic(staticFS, logger)
	if err != nil {
		logger.Error("Failed to create application", slog.Any("error", err))
		os.Exit(1)
	}

	// Handle any CLI data operations (seed data, clear data) before serving.
	if !seed.HandleDataOperations(cliConfig, application, logger) {
		if err := application.GetContainer().Close(); err != nil {
			logger.Error("Failed to close application", slog.Any("error", err))
		}
		return
	}

	if err := application.Run(); err != nil {
		logger.Error("Application failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// newLogger builds a colorized slog handler for terminals and a plain text
// handler otherwise. The level comes from SHELF_LOG_LEVEL.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("SHELF_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
