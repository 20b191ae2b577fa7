package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStaticRephrasePassesThrough(t *testing.T) {
	var a Static
	base := "What's your 5-digit zip code?"
	if got := a.Rephrase(context.Background(), "collecting_zip", base, "Ada"); got != base {
		t.Errorf("Expected base prompt verbatim, got %q", got)
	}
}

func TestStaticClarifyErrorWrapsGuidance(t *testing.T) {
	var a Static
	got := a.ClarifyError(context.Background(), "collecting_zip", "abc", "Please provide a valid 5-digit zip code.")
	if !strings.Contains(got, "Please provide a valid 5-digit zip code.") {
		t.Errorf("Expected guidance in fallback, got %q", got)
	}
}

func TestStaticSpeechDisabled(t *testing.T) {
	var a Static
	if a.SpeechEnabled() {
		t.Error("Static assistant should not report speech support")
	}
	if _, err := a.Transcribe(context.Background(), []byte("x")); !errors.Is(err, ErrSpeechDisabled) {
		t.Errorf("Expected ErrSpeechDisabled, got %v", err)
	}
	if _, err := a.Synthesize(context.Background(), "hi"); !errors.Is(err, ErrSpeechDisabled) {
		t.Errorf("Expected ErrSpeechDisabled, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}, nil); err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "sk-test"}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.cfg.Model != "gpt-4.1-nano" {
		t.Errorf("Unexpected default model: %q", client.cfg.Model)
	}
	if client.cfg.TTSVoice != "alloy" {
		t.Errorf("Unexpected default voice: %q", client.cfg.TTSVoice)
	}
	if !client.SpeechEnabled() {
		t.Error("OpenAI client should report speech support")
	}
}
