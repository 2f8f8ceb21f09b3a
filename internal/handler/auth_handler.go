package handler

import (
	"errors"
	"net/http"

	"event-management-api/internal/model"
	"event-management-api/internal/service"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var b struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input. Name, valid email, and password (min 6 chars) are required.")
		return
	}

	u, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name: b.Name, Email: b.Email, Password: b.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"message": "User registered successfully",
		"user":    u,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var b struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid login input. Email and password are required.")
		return
	}

	res, err := h.auth.Login(r.Context(), service.LoginInput{Email: b.Email, Password: b.Password})
	if errors.Is(err, model.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found with this email")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}
