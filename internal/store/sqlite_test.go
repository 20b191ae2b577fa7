package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bindiq/onboarding-server/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo Repository, userID string) {
	t.Helper()
	now := time.Now()
	err := repo.UpsertUser(context.Background(), &domain.User{
		UserID:     userID,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
}

func TestGetUserMissing(t *testing.T) {
	repo := newTestStore(t)

	user, err := repo.GetUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil for missing user, got %+v", user)
	}
}

func TestUpsertAndUpdateProfile(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedUser(t, repo, "user-1")

	zip := "90210"
	name := "Ada Lovelace"
	if err := repo.UpdateProfile(ctx, "user-1", domain.ProfileUpdate{ZipCode: &zip, FullName: &name}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	licType := "personal"
	if err := repo.UpdateProfile(ctx, "user-1", domain.ProfileUpdate{LicenseType: &licType}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	user, err := repo.GetUser(ctx, "user-1")
	if err != nil || user == nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.ZipCode != "90210" || user.FullName != "Ada Lovelace" || user.LicenseType != "personal" {
		t.Errorf("Unexpected profile: %+v", user)
	}
	// Fields not named in an update stay put.
	if user.Email != "" {
		t.Errorf("Email should be unset, got %q", user.Email)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	repo := newTestStore(t)

	zip := "12345"
	err := repo.UpdateProfile(context.Background(), "ghost", domain.ProfileUpdate{ZipCode: &zip})
	if err == nil {
		t.Fatal("Expected error for unknown user")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedUser(t, repo, "user-1")

	session, err := repo.GetSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session != nil {
		t.Fatalf("Expected nil session before first write, got %+v", session)
	}

	data := &domain.SessionData{}
	data.CurrentVehicle.VIN = "1HGBH41JXMN109186"
	data.CurrentVehicle.VehicleUse = "commuting"
	if err := repo.UpdateSessionState(ctx, "user-1", "collecting_blind_spot", data); err != nil {
		t.Fatalf("UpdateSessionState failed: %v", err)
	}

	session, err = repo.GetSession(ctx, "user-1")
	if err != nil || session == nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.CurrentState != "collecting_blind_spot" {
		t.Errorf("Unexpected state: %q", session.CurrentState)
	}
	if session.Data.CurrentVehicle.VIN != "1HGBH41JXMN109186" || session.Data.CurrentVehicle.VehicleUse != "commuting" {
		t.Errorf("Session data did not round-trip: %+v", session.Data)
	}

	// A nil data update advances state but keeps the stored scratch data.
	if err := repo.UpdateSessionState(ctx, "user-1", "collecting_commute_days", nil); err != nil {
		t.Fatalf("UpdateSessionState failed: %v", err)
	}
	session, err = repo.GetSession(ctx, "user-1")
	if err != nil || session == nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.CurrentState != "collecting_commute_days" {
		t.Errorf("Unexpected state: %q", session.CurrentState)
	}
	if session.Data.CurrentVehicle.VIN != "1HGBH41JXMN109186" {
		t.Errorf("Scratch data lost on nil update: %+v", session.Data)
	}
}

func TestMessages(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedUser(t, repo, "user-1")

	for _, m := range []struct{ role, content string }{
		{domain.RoleAssistant, "What's your zip code?"},
		{domain.RoleUser, "90210"},
		{domain.RoleAssistant, "Great! What's your full name?"},
	} {
		if err := repo.SaveMessage(ctx, "user-1", m.role, m.content); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	messages, err := repo.GetMessages(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	if messages[1].Role != domain.RoleUser || messages[1].Content != "90210" {
		t.Errorf("Messages out of order: %+v", messages)
	}
}

func TestVehicles(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedUser(t, repo, "user-1")

	blindSpot := true
	first := &domain.Vehicle{
		UserID:           "user-1",
		VIN:              "1HGBH41JXMN109186",
		VehicleUse:       "commuting",
		BlindSpotWarning: &blindSpot,
		DaysPerWeek:      5,
		OneWayMiles:      12,
	}
	if err := repo.SaveVehicle(ctx, first); err != nil {
		t.Fatalf("SaveVehicle failed: %v", err)
	}
	if first.ID == 0 {
		t.Error("Expected SaveVehicle to backfill the row ID")
	}

	second := &domain.Vehicle{
		UserID:        "user-1",
		Year:          2022,
		Make:          "Honda",
		BodyType:      "Civic",
		VehicleUse:    "business",
		AnnualMileage: 12000,
	}
	if err := repo.SaveVehicle(ctx, second); err != nil {
		t.Fatalf("SaveVehicle failed: %v", err)
	}

	vehicles, err := repo.GetVehicles(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetVehicles failed: %v", err)
	}
	if len(vehicles) != 2 {
		t.Fatalf("Expected 2 vehicles, got %d", len(vehicles))
	}
	if vehicles[0].VIN != "1HGBH41JXMN109186" || vehicles[0].BlindSpotWarning == nil || !*vehicles[0].BlindSpotWarning {
		t.Errorf("First vehicle did not round-trip: %+v", vehicles[0])
	}
	if vehicles[1].Year != 2022 || vehicles[1].Make != "Honda" || vehicles[1].AnnualMileage != 12000 {
		t.Errorf("Second vehicle did not round-trip: %+v", vehicles[1])
	}
	if vehicles[1].BlindSpotWarning != nil {
		t.Errorf("Unanswered blind spot should stay nil: %+v", vehicles[1])
	}
}

func TestCleanupCompletedSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedUser(t, repo, "done")
	seedUser(t, repo, "active")

	if err := repo.UpdateSessionState(ctx, "done", "completed", &domain.SessionData{}); err != nil {
		t.Fatalf("UpdateSessionState failed: %v", err)
	}
	if err := repo.UpdateSessionState(ctx, "active", "collecting_zip", &domain.SessionData{}); err != nil {
		t.Fatalf("UpdateSessionState failed: %v", err)
	}

	// TTL in the future relative to updated_at: nothing is old enough.
	deleted, err := repo.CleanupCompletedSessions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("CleanupCompletedSessions failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deletions, got %d", deleted)
	}

	// Negative TTL makes every completed session eligible.
	deleted, err = repo.CleanupCompletedSessions(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("CleanupCompletedSessions failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deletion, got %d", deleted)
	}

	session, err := repo.GetSession(ctx, "active")
	if err != nil || session == nil {
		t.Fatalf("Active session should survive cleanup: %v", err)
	}
}

func TestGetIdleUsers(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedUser(t, repo, "idle")
	seedUser(t, repo, "fresh")

	if err := repo.UpdateLastSeen(ctx, "idle", time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("UpdateLastSeen failed: %v", err)
	}

	users, err := repo.GetIdleUsers(ctx, time.Hour)
	if err != nil {
		t.Fatalf("GetIdleUsers failed: %v", err)
	}
	if len(users) != 1 || users[0] != "idle" {
		t.Errorf("Expected [idle], got %v", users)
	}
}
