package handler

import (
	"net/http"

	"github.com/google/uuid"

	"event-management-api/internal/middleware"
	"event-management-api/internal/service"
)

func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var b struct {
		Title    string `json:"title"`
		Datetime string `json:"datetime"`
		Location string `json:"location"`
		Capacity *int   `json:"capacity"`
	}
	if err := decode(w, r, &b); err != nil || b.Capacity == nil {
		writeError(w, http.StatusBadRequest, "Invalid input data for event creation")
		return
	}

	e, err := h.events.CreateEvent(r.Context(), service.CreateEventInput{
		Title:    b.Title,
		Datetime: b.Datetime,
		Location: b.Location,
		Capacity: *b.Capacity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"message": "Event created successfully",
		"event":   e,
	})
}

func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListUpcoming(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Upcoming events fetched successfully",
		"events":  events,
	})
}

func (h *Handler) GetEventDetails(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	d, err := h.events.GetEventDetails(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message":       "Event details fetched successfully",
		"event":         d.Event,
		"registrations": d.Registrations,
	})
}

// RegisterForEvent registers the authenticated caller.
func (h *Handler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	userID := middleware.UserID(r.Context())
	if !validID(eventID) || !validID(userID) {
		writeError(w, http.StatusBadRequest, "Invalid event or user ID")
		return
	}

	reg, err := h.events.RegisterUserToEvent(r.Context(), eventID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message":      "User registered successfully",
		"registration": reg,
	})
}

func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, userID := r.PathValue("id"), r.PathValue("userId")
	if !validID(eventID) || !validID(userID) {
		writeError(w, http.StatusBadRequest, "Invalid IDs")
		return
	}

	reg, err := h.events.CancelRegistration(r.Context(), eventID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message":      "Registration cancelled successfully",
		"registration": reg,
	})
}

func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	st, err := h.events.GetEventStats(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Stats fetched successfully",
		"stats":   st,
	})
}
