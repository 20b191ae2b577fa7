// Package ai provides the conversational rewriting sidecar. The onboarding
// questions are canned; the sidecar softens them into conversational text
// and falls back to the canned prompt verbatim whenever the model call
// fails, so the dialogue never depends on the model being reachable.
package ai

import (
	"context"
	"errors"
)

// ErrSpeechDisabled is returned by speech operations when no speech-capable
// backend is configured.
var ErrSpeechDisabled = errors.New("speech features disabled")

// Assistant rewrites prompts and handles speech for the conversation loop.
type Assistant interface {
	// Rephrase turns a canned prompt into conversational text. It never
	// fails: on any error the base prompt is returned verbatim.
	Rephrase(ctx context.Context, state, basePrompt, userName string) string

	// ClarifyError softens a validation guidance message. It never fails:
	// on any error a fixed fallback wrapping the guidance is returned.
	ClarifyError(ctx context.Context, state, userInput, guidance string) string

	// Transcribe converts user audio to text.
	Transcribe(ctx context.Context, audio []byte) (string, error)

	// Synthesize converts assistant text to audio bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// SpeechEnabled reports whether Transcribe and Synthesize are usable.
	SpeechEnabled() bool
}

// Static is the no-sidecar fallback: canned prompts pass through untouched
// and speech is unavailable.
type Static struct{}

// Rephrase returns the base prompt verbatim.
func (Static) Rephrase(_ context.Context, _, basePrompt, _ string) string {
	return basePrompt
}

// ClarifyError wraps the guidance in the fixed fallback phrasing.
func (Static) ClarifyError(_ context.Context, _, _, guidance string) string {
	return "I didn't understand that — " + guidance
}

// Transcribe always fails for the static assistant.
func (Static) Transcribe(_ context.Context, _ []byte) (string, error) {
	return "", ErrSpeechDisabled
}

// Synthesize always fails for the static assistant.
func (Static) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrSpeechDisabled
}

// SpeechEnabled reports false for the static assistant.
func (Static) SpeechEnabled() bool { return false }
