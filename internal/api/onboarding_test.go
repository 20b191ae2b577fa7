package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bindiq/onboarding-server/internal/domain"
	"github.com/bindiq/onboarding-server/internal/identity"
)

// stubRepo serves canned data for handler tests.
type stubRepo struct {
	user     *domain.User
	session  *domain.Session
	vehicles []domain.Vehicle
	messages []domain.ChatMessage
}

func (s *stubRepo) GetUser(_ context.Context, _ string) (*domain.User, error) {
	return s.user, nil
}
func (s *stubRepo) UpsertUser(_ context.Context, _ *domain.User) error { return nil }
func (s *stubRepo) UpdateProfile(_ context.Context, _ string, _ domain.ProfileUpdate) error {
	return nil
}
func (s *stubRepo) UpdateLastSeen(_ context.Context, _ string, _ time.Time) error { return nil }
func (s *stubRepo) GetSession(_ context.Context, _ string) (*domain.Session, error) {
	return s.session, nil
}
func (s *stubRepo) UpdateSessionState(_ context.Context, _ string, _ string, _ *domain.SessionData) error {
	return nil
}
func (s *stubRepo) SaveMessage(_ context.Context, _, _, _ string) error { return nil }
func (s *stubRepo) GetMessages(_ context.Context, _ string) ([]domain.ChatMessage, error) {
	return s.messages, nil
}
func (s *stubRepo) SaveVehicle(_ context.Context, _ *domain.Vehicle) error { return nil }
func (s *stubRepo) GetVehicles(_ context.Context, _ string) ([]domain.Vehicle, error) {
	return s.vehicles, nil
}
func (s *stubRepo) GetIdleUsers(_ context.Context, _ time.Duration) ([]string, error) {
	return nil, nil
}
func (s *stubRepo) CleanupCompletedSessions(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}
func (s *stubRepo) Ping(_ context.Context) error { return nil }
func (s *stubRepo) Close() error                 { return nil }

func doRequest(t *testing.T, h *OnboardingHandler, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(identity.WithIdentity(req.Context(), userID, "tab-a"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetMeReturnsProfileAndProgress(t *testing.T) {
	repo := &stubRepo{
		user: &domain.User{
			UserID:   "anon_0123",
			ZipCode:  "90210",
			FullName: "Jane Smith",
			Email:    "jane@example.com",
		},
		session:  &domain.Session{UserID: "anon_0123", CurrentState: "collecting_vehicle_info"},
		vehicles: []domain.Vehicle{{UserID: "anon_0123", Make: "Honda", Year: 2022}},
	}
	h := NewOnboardingHandler(NewHandler(repo), false)

	w := doRequest(t, h, "/api/me", "anon_0123")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["user_id"] != "anon_0123" || got["zip_code"] != "90210" {
		t.Errorf("Unexpected profile: %v", got)
	}
	if got["current_state"] != "collecting_vehicle_info" {
		t.Errorf("Expected current_state collecting_vehicle_info, got %v", got["current_state"])
	}
	if got["progress"] != float64(40) {
		t.Errorf("Expected progress 40, got %v", got["progress"])
	}
	vehicles, ok := got["vehicles"].([]interface{})
	if !ok || len(vehicles) != 1 {
		t.Errorf("Expected 1 vehicle, got %v", got["vehicles"])
	}
}

func TestGetMeWithoutSessionReportsStart(t *testing.T) {
	repo := &stubRepo{user: &domain.User{UserID: "anon_0123"}}
	h := NewOnboardingHandler(NewHandler(repo), false)

	w := doRequest(t, h, "/api/me", "anon_0123")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["current_state"] != "start" || got["progress"] != float64(0) {
		t.Errorf("Expected start/0, got %v/%v", got["current_state"], got["progress"])
	}
}

func TestGetMeUnauthorized(t *testing.T) {
	h := NewOnboardingHandler(NewHandler(&stubRepo{}), false)

	w := doRequest(t, h, "/api/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without identity, got %d", w.Code)
	}
}

func TestGetMessages(t *testing.T) {
	repo := &stubRepo{
		messages: []domain.ChatMessage{
			{UserID: "anon_0123", Role: domain.RoleAssistant, Content: "What is your ZIP code?"},
			{UserID: "anon_0123", Role: domain.RoleUser, Content: "90210"},
		},
	}
	h := NewOnboardingHandler(NewHandler(repo), false)

	w := doRequest(t, h, "/api/messages", "anon_0123")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "90210" {
		t.Errorf("Unexpected messages: %+v", got.Messages)
	}
}

func TestGetConfigVoiceFlag(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		h := NewOnboardingHandler(NewHandler(&stubRepo{}), enabled)

		w := doRequest(t, h, "/api/config", "anon_0123")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var got map[string]bool
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got["voice_enabled"] != enabled {
			t.Errorf("Expected voice_enabled=%v, got %v", enabled, got["voice_enabled"])
		}
	}
}

func TestHealthReportsDatabaseOK(t *testing.T) {
	h := NewHealthHandler(&stubRepo{})
	r := chi.NewRouter()
	h.RegisterHealth(r)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", got["status"])
	}
}
