package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vshankar/margazhi-planner/internal/chat"
	"github.com/vshankar/margazhi-planner/internal/config"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/itinerary"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	store       *schedule.Store
	chatService *chat.Service
	planner     *itinerary.Planner
	geocoder    *geo.Geocoder
	config      *config.Config
	logger      *logger.Logger
	startedAt   time.Time
}

// NewHandler creates a new API handler
func NewHandler(store *schedule.Store, chatService *chat.Service, planner *itinerary.Planner, geocoder *geo.Geocoder, config *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		store:       store,
		chatService: chatService,
		planner:     planner,
		geocoder:    geocoder,
		config:      config,
		logger:      logger.Named("api-handler"),
		startedAt:   time.Now(),
	}
}

// GetConcerts returns concerts matching the query parameters.
func (h *Handler) GetConcerts(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	concerts := h.store.Query(filter)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(concerts),
		"concerts": concerts,
	})
}

// GetVenues returns the distinct venue names in the schedule.
func (h *Handler) GetVenues(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"venues": h.store.Venues(),
	})
}

// GetArtists returns the distinct artist names in the schedule.
func (h *Handler) GetArtists(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"artists": h.store.Artists(),
	})
}

// GetVenueLocation resolves a venue name to coordinates.
func (h *Handler) GetVenueLocation(w http.ResponseWriter, r *http.Request) {
	venue := r.URL.Query().Get("name")
	if venue == "" {
		h.respondError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	coord, err := h.geocoder.Resolve(r.Context(), venue)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "venue not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"venue": venue,
		"lat":   coord.Lat,
		"lon":   coord.Lon,
	})
}

// selectionRequest is the body for itinerary endpoints.
type selectionRequest struct {
	Concerts []schedule.Concert `json:"concerts"`
}

// DetectConflicts reports overlapping concerts in a selection.
func (h *Handler) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conflicts := itinerary.DetectConflicts(req.Concerts, h.config.Itinerary.DefaultConcertMins)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(conflicts),
		"conflicts": conflicts,
	})
}

// PlanRoute orders a selection of concerts into day routes.
func (h *Handler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Concerts) == 0 {
		h.respondError(w, http.StatusBadRequest, "empty selection")
		return
	}

	route, err := h.planner.PlanRoute(r.Context(), req.Concerts)
	if err != nil {
		h.logger.Error("Route planning failed", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "route planning failed")
		return
	}

	h.respondJSON(w, http.StatusOK, route)
}

// CreateChatSession starts a new conversation.
func (h *Handler) CreateChatSession(w http.ResponseWriter, r *http.Request) {
	session := h.chatService.Sessions().Create()
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": session.ID,
		"created_at": session.CreatedAt,
	})
}

// EndChatSession removes a conversation.
func (h *Handler) EndChatSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	h.chatService.Sessions().Delete(sessionID)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"ended":      true,
	})
}

// ResetChatSession clears a conversation's history and remembered results.
func (h *Handler) ResetChatSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if !h.chatService.Sessions().Reset(sessionID) {
		h.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"reset":      true,
	})
}

// chatQueryRequest is the body for chat queries.
type chatQueryRequest struct {
	Text string `json:"text"`
}

// ChatQuery processes one user message in a session.
func (h *Handler) ChatQuery(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	session, ok := h.chatService.Sessions().Get(sessionID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req chatQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		h.respondError(w, http.StatusBadRequest, "missing text")
		return
	}

	reply := h.chatService.Process(r.Context(), session, req.Text)
	h.respondJSON(w, http.StatusOK, reply)
}

// GetHealth returns service health and schedule stats.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	minDate, maxDate := h.store.DateRange()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).String(),
		"concerts":  h.store.Len(),
		"date_from": minDate.Format("2006-01-02"),
		"date_to":   maxDate.Format("2006-01-02"),
	})
}

// GetConfig returns the non-sensitive parts of the configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"season_year":          h.config.Schedule.SeasonYear,
		"routing_mode":         h.config.Routing.Mode,
		"default_concert_mins": h.config.Itinerary.DefaultConcertMins,
	})
}

// filterFromQuery builds a schedule filter from URL query parameters.
func (h *Handler) filterFromQuery(r *http.Request) (schedule.Filter, error) {
	q := r.URL.Query()
	var f schedule.Filter

	ref := time.Now()
	year := h.config.Schedule.SeasonYear

	if v := q.Get("date"); v != "" {
		d, ok := schedule.ParseDate(v, ref, year)
		if !ok {
			return f, &queryError{"date", v}
		}
		f.DateFrom, f.DateTo = d, d
	}
	if v := q.Get("date_from"); v != "" {
		d, ok := schedule.ParseDate(v, ref, year)
		if !ok {
			return f, &queryError{"date_from", v}
		}
		f.DateFrom = d
	}
	if v := q.Get("date_to"); v != "" {
		d, ok := schedule.ParseDate(v, ref, year)
		if !ok {
			return f, &queryError{"date_to", v}
		}
		f.DateTo = d
	}

	f.Artist = q.Get("artist")
	f.Venue = q.Get("venue")
	f.Location = q.Get("location")
	f.TimeOfDay = schedule.ParseTimeOfDay(q.Get("time_of_day"))
	f.Ticketed = q.Get("ticketed")

	return f, nil
}

type queryError struct {
	param string
	value string
}

func (e *queryError) Error() string {
	return "unparsable " + e.param + ": " + e.value
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// respondError writes a JSON error response
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
