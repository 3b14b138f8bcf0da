package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/defit-store/backend/internal/auth"
	"github.com/defit-store/backend/internal/stats"
)

type LoginRequest struct {
	Password string `json:"password"`
	Action   string `json:"action"`
}

// AdminHandler serves login/logout and the dashboard stats.
type AdminHandler struct {
	sessions *auth.Sessions
	stats    *stats.Service
}

func NewAdminHandler(sessions *auth.Sessions, statsService *stats.Service) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		stats:    statsService,
	}
}

func (h *AdminHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/api/admin/login", h.handleLogin)
}

func (h *AdminHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/api/admin/stats", h.handleStats)
}

func (h *AdminHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if payload.Action == "logout" {
		h.sessions.ClearCookie(w)
		respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
		return
	}

	if err := h.sessions.VerifyPassword(payload.Password); err != nil {
		log.Warn().Str("remote", r.RemoteAddr).Msg("Rejected admin login attempt")
		respondWithError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	now := time.Now().UTC()
	token, err := h.sessions.IssueToken(now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue admin session token")
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.sessions.SetCookie(w, token, now)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Authenticated"})
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.stats.Compute(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute admin stats")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"stats": result})
}
