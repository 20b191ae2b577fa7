package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var errMissingAPIKey = errors.New("OPENAI_API_KEY missing")

// Config holds settings for the OpenAI-backed assistant.
type Config struct {
	APIKey         string
	Model          string
	TTSVoice       string
	RequestTimeout time.Duration
}

// DefaultConfig returns default assistant configuration.
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-4.1-nano",
		TTSVoice:       "alloy",
		RequestTimeout: 30 * time.Second,
	}
}

// Client implements Assistant using the OpenAI API for prompt rewriting,
// transcription, and speech synthesis.
type Client struct {
	api    openai.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient creates an OpenAI-backed assistant.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, errMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.TTSVoice == "" {
		cfg.TTSVoice = DefaultConfig().TTSVoice
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	return &Client{
		api:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(150),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Rephrase rewrites the canned prompt conversationally. The base prompt is
// returned verbatim on any failure.
func (c *Client) Rephrase(ctx context.Context, state, basePrompt, userName string) string {
	if userName == "" {
		userName = "Not provided"
	}
	system := "You are a friendly insurance-onboarding assistant. " +
		"Keep replies warm, at most 3 short sentences, and ask ONLY for the field in the current step."
	user := fmt.Sprintf(
		"Current state: %s\nBase message: %s\nUser name: %s\n\n"+
			"Rewrite the base message conversationally. "+
			"Use the user's name sparingly (about once every few turns).",
		state, basePrompt, userName,
	)

	reply, err := c.chat(ctx, system, user)
	if err != nil {
		c.logger.Warn("prompt rephrase failed, using base prompt", "state", state, "error", err)
		return basePrompt
	}
	return reply
}

// ClarifyError softens a validation guidance message. A fixed fallback
// wrapping the guidance is returned on any failure.
func (c *Client) ClarifyError(ctx context.Context, state, userInput, guidance string) string {
	system := "You are a helpful insurance assistant. " +
		"When users make input errors, gently guide them without sounding condescending."
	user := fmt.Sprintf(
		"The user provided invalid input for %s.\nUser input: %q\nError: %s\n"+
			"Create a friendly 1-2 sentence clarification.",
		state, userInput, guidance,
	)

	reply, err := c.chat(ctx, system, user)
	if err != nil {
		c.logger.Warn("error clarification failed, using guidance", "state", state, "error", err)
		return "I didn't understand that — " + guidance
	}
	return reply
}

// Transcribe converts user audio to text using whisper-1.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(audio), "audio.webm", "audio/webm"),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Synthesize converts assistant text to MP3 audio using tts-1.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoice(c.cfg.TTSVoice),
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close speech response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	return data, nil
}

// SpeechEnabled reports true: the OpenAI backend handles both directions.
func (c *Client) SpeechEnabled() bool { return true }
