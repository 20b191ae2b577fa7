package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bindiq/onboarding-server/internal/conversation"
	"github.com/bindiq/onboarding-server/internal/domain"
	"github.com/bindiq/onboarding-server/internal/identity"
)

// OnboardingHandler handles the read-side onboarding endpoints: profile,
// history and frontend feature flags. All writes go through the WebSocket
// conversation loop.
type OnboardingHandler struct {
	*Handler
	voiceEnabled bool
}

// NewOnboardingHandler creates a new onboarding handler.
func NewOnboardingHandler(base *Handler, voiceEnabled bool) *OnboardingHandler {
	return &OnboardingHandler{Handler: base, voiceEnabled: voiceEnabled}
}

// RegisterRoutes registers onboarding routes.
func (h *OnboardingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/messages", h.GetMessages)
		r.Get("/config", h.GetConfig)
	})
}

// GetMe returns the current user's profile, vehicles and conversation
// position.
func (h *OnboardingHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	vehicles, err := h.repo.GetVehicles(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load vehicles", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load vehicles")
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}

	currentState := string(conversation.StateStart)
	session, err := h.repo.GetSession(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load session", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if session != nil {
		currentState = session.CurrentState
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        user.UserID,
		"zip_code":       user.ZipCode,
		"full_name":      user.FullName,
		"email":          user.Email,
		"license_type":   user.LicenseType,
		"license_status": user.LicenseStatus,
		"vehicles":       vehicles,
		"current_state":  currentState,
		"progress":       conversation.Progress(conversation.State(currentState)),
	})
}

// GetMessages returns the user's chat history in chronological order.
func (h *OnboardingHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	messages, err := h.repo.GetMessages(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load messages", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// GetConfig returns frontend feature flags.
func (h *OnboardingHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"voice_enabled": h.voiceEnabled,
	})
}
