package app

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelf/handlers"
	"shelf/routes"
)

// Application ties the container to the HTTP server and embedded demo UI
type Application struct {
	container     *Container
	httpServer    *http.Server
	staticHandler *handlers.StaticHandlers
	logger        *slog.Logger
}

// NewApplicationWithStatic creates a new application instance with embedded static files
func NewApplicationWithStatic(staticFS embed.FS, logger *slog.Logger) (*Application, error) {
	container, err := NewContainer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	staticHandler := handlers.NewStaticHandlers(staticFS, "public/http")

	return &Application{
		container:     container,
		staticHandler: staticHandler,
		logger:        container.Logger,
	}, nil
}

// Start brings up the HTTP server
func (a *Application) Start() error {
	router := routes.Setup(a.container.HandlerContainer(), a.staticHandler)

	a.httpServer = &http.Server{
		Addr:              ":" + a.container.Config.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("HTTP server started", slog.String("port", a.container.Config.HTTP.Port))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	return nil
}

// Stop shuts the server down and releases every open database handle
func (a *Application) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("Error shutting down HTTP server", slog.Any("error", err))
		}
	}

	if err := a.container.Close(); err != nil {
		a.logger.Error("Error closing container", slog.Any("error", err))
	}

	return nil
}

// Run starts the application and blocks until an interrupt arrives
func (a *Application) Run() error {
	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application started. Press Ctrl+C to stop.")
	<-quit
	a.logger.Info("Shutting down application...")

	if err := a.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	a.logger.Info("Application stopped")
	return nil
}

// GetContainer returns the application's container for access to services
func (a *Application) GetContainer() *Container {
	return a.container
}
