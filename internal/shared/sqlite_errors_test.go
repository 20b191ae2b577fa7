package shared

import (
	"context"
	"errors"
	"testing"
)

func TestIsSQLiteConflictError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"busy", errors.New("SQLITE_BUSY: database busy"), true},
		{"locked", errors.New("database is locked"), true},
		{"other", errors.New("no such table"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSQLiteConflictError(tc.err); got != tc.want {
				t.Errorf("IsSQLiteConflictError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryOnConflictRetriesBusy(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestRetryOnConflictStopsOnOtherErrors(t *testing.T) {
	calls := 0
	wantErr := errors.New("no such table")
	err := RetryOnConflict(context.Background(), "test", func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
}
