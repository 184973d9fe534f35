package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"shelf/handlers"
	"shelf/internal/middleware"
)

const maxBodyBytes = 1 << 20 // 1 MiB request bodies are plenty for contacts

// Setup configures and returns a new router with all defined routes for the application.
func Setup(container *handlers.Container, static *handlers.StaticHandlers) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	limiter := rate.NewLimiter(rate.Limit(50), 100)
	router.Use(
		middleware.LoggingMiddleware(container.Logger),
		middleware.SecurityHeadersMiddleware,
		middleware.RateLimitMiddleware(limiter, container.Logger),
		middleware.MaxSizeMiddleware(maxBodyBytes),
	)

	contactHandlers := handlers.NewContactHandlers(container)
	setupAPIRoutes(router, contactHandlers)

	if static != nil {
		router.PathPrefix("/").HandlerFunc(static.ServeStatic).Methods("GET").Name("Static")
	}

	return router
}

// setupAPIRoutes defines the JSON API exercised by the demo UI.
func setupAPIRoutes(router *mux.Router, h *handlers.ContactHandlers) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/contacts", h.ListContacts).Methods(http.MethodGet).Name("ListContacts")
	api.HandleFunc("/contacts/count", h.CountContacts).Methods(http.MethodGet).Name("CountContacts")
	api.HandleFunc("/contacts/{id}", h.GetContact).Methods(http.MethodGet).Name("GetContact")
	api.HandleFunc("/contacts", h.CreateContact).Methods(http.MethodPost).Name("CreateContact")
	api.HandleFunc("/contacts/import", h.ImportContacts).Methods(http.MethodPost).Name("ImportContacts")
	api.HandleFunc("/contacts/clear", h.ClearContacts).Methods(http.MethodPost).Name("ClearContacts")
	api.HandleFunc("/contacts/{id}", h.UpdateContact).Methods(http.MethodPut).Name("UpdateContact")
	api.HandleFunc("/contacts/{id}", h.DeleteContact).Methods(http.MethodDelete).Name("DeleteContact")
	api.HandleFunc("/databases", h.ListDatabases).Methods(http.MethodGet).Name("ListDatabases")
}
