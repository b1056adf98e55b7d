package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// EventHandler serves events, categories and the organizer dashboard.
type EventHandler struct {
	events     *service.EventService
	categories *service.CategoryService
	tickets    *service.TicketService
	dashboard  *service.DashboardService
	log        *zap.Logger
}

func NewEventHandler(
	events *service.EventService,
	categories *service.CategoryService,
	tickets *service.TicketService,
	dashboard *service.DashboardService,
	log *zap.Logger,
) *EventHandler {
	return &EventHandler{events: events, categories: categories, tickets: tickets, dashboard: dashboard, log: log}
}

// ListEvents handles GET /api/events
// Optional filters: ?category=, ?featured=true, ?limit=n.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.EventFilter{Category: q.Get("category"), Featured: q.Get("featured") == "true"}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, h.log, model.Invalid("limit", "must be an integer"))
			return
		}
		f.Limit = n
	}

	events, err := h.events.ListEvents(r.Context(), f)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(events))
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	event, err := h.events.CreateEvent(r.Context(), caller(r), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var u model.EventUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	event, err := h.events.UpdateEvent(r.Context(), caller(r), chi.URLParam(r, "id"), u)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// OrganizerEvents handles GET /api/organizer/events
func (h *EventHandler) OrganizerEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.OrganizerEvents(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(events))
}

// EventTickets handles GET /api/events/{id}/tickets
func (h *EventHandler) EventTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.EventTickets(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tickets))
}

// ListCategories handles GET /api/categories
func (h *EventHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(categories))
}

// RecountCategories handles POST /api/categories/recount
func (h *EventHandler) RecountCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.Recount(r.Context(), caller(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(categories))
}

// DashboardStats handles GET /api/dashboard/stats
func (h *EventHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context(), caller(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
