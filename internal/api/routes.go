package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vshankar/margazhi-planner/internal/chat"
	"github.com/vshankar/margazhi-planner/internal/config"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/itinerary"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(store *schedule.Store, chatService *chat.Service, planner *itinerary.Planner, geocoder *geo.Geocoder, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(store, chatService, planner, geocoder, config, logger),
		middleware: NewMiddleware(config.Server.CORSAllowedOrigins, logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS)

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Schedule routes
		router.Get("/concerts", r.handler.GetConcerts)
		router.Get("/venues", r.handler.GetVenues)
		router.Get("/artists", r.handler.GetArtists)

		// Venue geocoding
		router.Get("/venues/location", r.handler.GetVenueLocation)

		// Itinerary routes
		router.Post("/itinerary/conflicts", r.handler.DetectConflicts)
		router.Post("/itinerary/route", r.handler.PlanRoute)

		// Chat routes
		router.Post("/chat/session", r.handler.CreateChatSession)
		router.Delete("/chat/session/{sessionId}", r.handler.EndChatSession)
		router.Post("/chat/session/{sessionId}/reset", r.handler.ResetChatSession)
		router.Post("/chat/session/{sessionId}/query", r.handler.ChatQuery)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	return router
}
