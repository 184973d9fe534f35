package app

import (
	"fmt"
	"log/slog"

	"shelf/config"
	"shelf/contacts"
	"shelf/handlers"
	"shelf/store"
)

// Container holds all application dependencies. The store registry lives
// here: it is the one connection cache for the whole process, handed to every
// repository by reference.
type Container struct {
	Config         *config.Config
	Registry       *store.Registry
	ContactRepo    contacts.Repository
	ContactService contacts.Service
	Logger         *slog.Logger
}

// NewContainer creates and wires up all dependencies
func NewContainer(logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewContainerWithConfig(cfg, logger)
}

// NewContainerWithConfig wires dependencies against an explicit configuration
func NewContainerWithConfig(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	registry, err := store.NewRegistry(cfg.Store.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store registry: %w", err)
	}

	contactRepo, err := contacts.NewRepository(registry, cfg.Store.Database, cfg.Store.Version)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("failed to create contact repository: %w", err)
	}
	contactService := contacts.NewService(contactRepo, logger)

	return &Container{
		Config:         cfg,
		Registry:       registry,
		ContactRepo:    contactRepo,
		ContactService: contactService,
		Logger:         logger,
	}, nil
}

// HandlerContainer adapts the container for the HTTP layer
func (c *Container) HandlerContainer() *handlers.Container {
	return &handlers.Container{
		ContactService: c.ContactService,
		Registry:       c.Registry,
		Config:         c.Config,
		Logger:         c.Logger,
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Registry != nil {
		return c.Registry.Close()
	}
	return nil
}
