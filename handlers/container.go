package handlers

import (
	"log/slog"

	"shelf/config"
	"shelf/contacts"
	"shelf/store"
)

// Container holds dependencies for handlers
type Container struct {
	ContactService contacts.Service
	Registry       *store.Registry
	Config         *config.Config
	Logger         *slog.Logger
}
