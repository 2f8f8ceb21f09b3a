package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"event-management-api/internal/middleware"
	"event-management-api/internal/model"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{"error": msg})
}

// decode reads a JSON body into dst. Unknown fields are ignored.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

var errorStatus = []struct {
	err  error
	code int
	msg  string
}{
	{model.ErrDuplicateEmail, http.StatusConflict, "Email already exists"},
	{model.ErrAlreadyRegistered, http.StatusConflict, "User already registered"},
	{model.ErrInvalidPassword, http.StatusUnauthorized, "Incorrect password"},
	{model.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{model.ErrEventNotFound, http.StatusNotFound, "Event not found"},
	{model.ErrRegistrationNotFound, http.StatusNotFound, "User not registered for this event"},
	{model.ErrPastEvent, http.StatusBadRequest, "Cannot register for past events"},
	{model.ErrEventFull, http.StatusBadRequest, "Event is full"},
}

// respondError maps a service error onto the HTTP taxonomy. Anything that is
// not a known outcome becomes a 500 whose detail only reaches the log.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		middleware.LoggerFromContext(r.Context()).Debug().Strs("fields", ve.Fields).Msg("validation failed")
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(w, e.code, e.msg)
			return
		}
	}

	middleware.LoggerFromContext(r.Context()).Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("internal error")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
