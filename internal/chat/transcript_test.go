package chat

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readTranscriptLines(t *testing.T, path string) []TranscriptEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open transcript %s: %v", path, err)
	}
	defer f.Close()

	var events []TranscriptEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev TranscriptEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("Invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestTranscriptLoggerWritesPerSessionFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewTranscriptLogger(TranscriptConfig{Enabled: true, Dir: dir}, nil)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Log(TranscriptEvent{
		UserID:    "user-1",
		SessionID: "tab-a",
		Role:      "user",
		EventType: EventUserMessage,
		State:     "collecting_zip",
		Content:   "90210",
	})
	logger.Log(TranscriptEvent{
		UserID:    "user-1",
		SessionID: "tab-a",
		Role:      "assistant",
		EventType: EventBotMessage,
		State:     "collecting_name",
		Content:   "What is your full name?",
		Progress:  20,
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	path := filepath.Join(dir, "user-1", "tab-a.ndjson")
	events := readTranscriptLines(t, path)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Content != "90210" || events[0].EventType != EventUserMessage {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[1].Progress != 20 || events[1].State != "collecting_name" {
		t.Errorf("Unexpected second event: %+v", events[1])
	}
	if events[0].Timestamp == "" {
		t.Error("Expected timestamp to be filled in")
	}
	if _, err := time.Parse(time.RFC3339, events[0].Timestamp); err != nil {
		t.Errorf("Timestamp not RFC3339: %v", err)
	}
}

func TestTranscriptLoggerGlobalStream(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "all", "conversations.ndjson")
	logger, err := NewTranscriptLogger(TranscriptConfig{
		Enabled:       true,
		Dir:           filepath.Join(dir, "sessions"),
		GlobalEnabled: true,
		GlobalPath:    globalPath,
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Log(TranscriptEvent{UserID: "user-1", SessionID: "tab-a", EventType: EventUserMessage, Content: "hello"})
	logger.Log(TranscriptEvent{UserID: "user-2", SessionID: "tab-b", EventType: EventUserMessage, Content: "hi"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := readTranscriptLines(t, globalPath)
	if len(events) != 2 {
		t.Fatalf("Expected 2 global events, got %d", len(events))
	}
	if events[0].UserID != "user-1" || events[1].UserID != "user-2" {
		t.Errorf("Global stream should interleave users: %+v", events)
	}
}

func TestTranscriptLoggerDisabledIsNoop(t *testing.T) {
	logger, err := NewTranscriptLogger(TranscriptConfig{}, nil)
	if err != nil {
		t.Fatalf("Failed to create disabled logger: %v", err)
	}
	logger.Log(TranscriptEvent{UserID: "user-1", SessionID: "tab-a", EventType: EventUserMessage})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestTranscriptLoggerNilReceiverIsSafe(t *testing.T) {
	var logger *TranscriptLogger
	logger.Log(TranscriptEvent{UserID: "user-1"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close on nil logger failed: %v", err)
	}
}
