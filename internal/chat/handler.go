package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/bindiq/onboarding-server/internal/ai"
	"github.com/bindiq/onboarding-server/internal/conversation"
	"github.com/bindiq/onboarding-server/internal/domain"
	"github.com/bindiq/onboarding-server/internal/identity"
	"github.com/bindiq/onboarding-server/internal/shared"
	"github.com/bindiq/onboarding-server/internal/store"
)

// Wire message types exchanged over /ws/chat.
const (
	typeUserMessage = "user_message"
	typeUserAudio   = "user_audio"
	typePing        = "ping"
	typePong        = "pong"
	typeBotMessage  = "bot_message"
	typeBotAudio    = "bot_audio"
	typeStateUpdate = "state_update"
	typeError       = "error"
)

type clientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type serverMessage struct {
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Handler runs the onboarding dialogue over a WebSocket connection.
type Handler struct {
	repo       store.Repository
	sessions   *SessionManager
	assistant  ai.Assistant
	transcript *TranscriptLogger
	origins    []string
	isDev      bool
}

// NewHandler creates the conversation WebSocket handler.
func NewHandler(repo store.Repository, sessions *SessionManager, assistant ai.Assistant, transcript *TranscriptLogger, origins []string, isDev bool) *Handler {
	return &Handler{
		repo:       repo,
		sessions:   sessions,
		assistant:  assistant,
		transcript: transcript,
		origins:    origins,
		isDev:      isDev,
	}
}

// originPatterns converts configured origin URLs into the host patterns the
// websocket library matches against.
func (h *Handler) originPatterns() []string {
	patterns := make([]string, 0, len(h.origins))
	for _, o := range h.origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		} else {
			patterns = append(patterns, o)
		}
	}
	return patterns
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "identity required", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns(),
		InsecureSkipVerify: h.isDev,
	})
	if err != nil {
		slog.Warn("WebSocket accept failed", "user_id", userID, "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusInternalError, "connection closed") }()

	h.sessions.Register(userID, sessionID, conn)
	defer h.sessions.Unregister(userID, sessionID, conn)

	ctx := r.Context()
	if err := h.greet(ctx, conn, userID, sessionID); err != nil {
		slog.Error("Failed to start conversation", "user_id", userID, "error", err)
		return
	}

	for {
		typ, raw, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("Conversation ended", "user_id", userID, "session_id", sessionID)
			} else if ctx.Err() == nil {
				slog.Warn("Conversation read failed", "user_id", userID, "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.send(ctx, conn, serverMessage{Type: typeError, Content: "invalid message"})
			continue
		}

		switch msg.Type {
		case typePing:
			h.send(ctx, conn, serverMessage{Type: typePong})

		case typeUserMessage:
			text := strings.TrimSpace(msg.Content)
			if text == "" {
				continue
			}
			h.handleTurn(ctx, conn, userID, sessionID, text)

		case typeUserAudio:
			if !h.assistant.SpeechEnabled() {
				h.send(ctx, conn, serverMessage{Type: typeError, Content: "voice input is not enabled"})
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(msg.Content)
			if err != nil {
				h.send(ctx, conn, serverMessage{Type: typeError, Content: "could not decode audio"})
				continue
			}
			text, err := h.assistant.Transcribe(ctx, audio)
			if err != nil {
				slog.Warn("Transcription failed", "user_id", userID, "error", err)
				h.send(ctx, conn, serverMessage{Type: typeError, Content: "could not transcribe audio"})
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			h.handleTurn(ctx, conn, userID, sessionID, text)

		default:
			h.send(ctx, conn, serverMessage{Type: typeError, Content: "unknown message type"})
		}
	}
}

// greet opens the dialogue. A brand-new user gets the greeting and the
// session advances to the first question; a returning user gets their
// current question again so the conversation resumes where it stopped.
func (h *Handler) greet(ctx context.Context, conn *websocket.Conn, userID, sessionID string) error {
	session, err := h.repo.GetSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if session != nil {
		current := conversation.State(session.CurrentState)
		reply := h.assistant.Rephrase(ctx, string(current), conversation.Prompt(current), h.userName(ctx, userID))
		if err := h.sendBot(ctx, conn, userID, sessionID, current, reply); err != nil {
			return err
		}
		return h.sendStateUpdate(ctx, conn, current)
	}

	reply := h.assistant.Rephrase(ctx, string(conversation.StateStart), conversation.Prompt(conversation.StateStart), "")
	if err := h.repo.SaveMessage(ctx, userID, domain.RoleAssistant, reply); err != nil {
		slog.Warn("Failed to save greeting", "user_id", userID, "error", err)
	}

	next := conversation.NextState(conversation.StateStart, nil, nil)
	if err := shared.RetryOnConflict(ctx, "init session", func() error {
		return h.repo.UpdateSessionState(ctx, userID, string(next), &domain.SessionData{})
	}); err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	if err := h.sendBot(ctx, conn, userID, sessionID, next, reply); err != nil {
		return err
	}
	h.speak(ctx, conn, reply)
	return h.sendStateUpdate(ctx, conn, next)
}

// handleTurn runs one question/answer exchange: validate the answer, apply
// its side effects, advance the state machine and ask the next question.
// Validation failures produce guidance without touching state or data.
func (h *Handler) handleTurn(ctx context.Context, conn *websocket.Conn, userID, sessionID, text string) {
	if err := h.repo.SaveMessage(ctx, userID, domain.RoleUser, text); err != nil {
		slog.Warn("Failed to save user message", "user_id", userID, "error", err)
	}

	session, err := h.repo.GetSession(ctx, userID)
	if err != nil || session == nil {
		slog.Error("Failed to load session for turn", "user_id", userID, "error", err)
		h.send(ctx, conn, serverMessage{Type: typeError, Content: "something went wrong, please try again"})
		return
	}
	current := conversation.State(session.CurrentState)
	data := session.Data

	h.transcript.Log(TranscriptEvent{
		UserID:    userID,
		SessionID: sessionID,
		Role:      domain.RoleUser,
		EventType: EventUserMessage,
		State:     string(current),
		Content:   text,
	})

	go func() {
		if err := h.repo.UpdateLastSeen(context.Background(), userID, time.Now()); err != nil {
			slog.Warn("Failed to update last seen", "user_id", userID, "error", err)
		}
	}()

	value, err := conversation.Validate(current, text)
	if err != nil {
		guidance := err.Error()
		var verr *conversation.ValidationError
		if errors.As(err, &verr) {
			guidance = verr.Guidance
		}
		reply := h.assistant.ClarifyError(ctx, string(current), text, guidance)
		if err := h.repo.SaveMessage(ctx, userID, domain.RoleAssistant, reply); err != nil {
			slog.Warn("Failed to save clarification", "user_id", userID, "error", err)
		}
		h.transcript.Log(TranscriptEvent{
			UserID:    userID,
			SessionID: sessionID,
			Role:      domain.RoleAssistant,
			EventType: EventValidationFailure,
			State:     string(current),
			Content:   reply,
		})
		if err := h.sendBot(ctx, conn, userID, sessionID, current, reply); err != nil {
			slog.Warn("Failed to send clarification", "user_id", userID, "error", err)
		}
		h.speak(ctx, conn, reply)
		return
	}

	if err := applyValidInput(ctx, h.repo, userID, current, value, &data); err != nil {
		slog.Error("Failed to apply answer", "user_id", userID, "state", current, "error", err)
		h.send(ctx, conn, serverMessage{Type: typeError, Content: "something went wrong, please try again"})
		return
	}

	next := conversation.NextState(current, value, &data)

	if err := shared.RetryOnConflict(ctx, "update session state", func() error {
		return h.repo.UpdateSessionState(ctx, userID, string(next), &data)
	}); err != nil {
		slog.Error("Failed to persist session state", "user_id", userID, "state", next, "error", err)
		h.send(ctx, conn, serverMessage{Type: typeError, Content: "something went wrong, please try again"})
		return
	}

	reply := h.assistant.Rephrase(ctx, string(next), conversation.Prompt(next), h.userName(ctx, userID))
	if err := h.repo.SaveMessage(ctx, userID, domain.RoleAssistant, reply); err != nil {
		slog.Warn("Failed to save assistant message", "user_id", userID, "error", err)
	}

	if err := h.sendBot(ctx, conn, userID, sessionID, next, reply); err != nil {
		slog.Warn("Failed to send reply", "user_id", userID, "error", err)
		return
	}
	h.speak(ctx, conn, reply)
	if err := h.sendStateUpdate(ctx, conn, next); err != nil {
		slog.Warn("Failed to send state update", "user_id", userID, "error", err)
	}
}

func (h *Handler) userName(ctx context.Context, userID string) string {
	user, err := h.repo.GetUser(ctx, userID)
	if err != nil || user == nil {
		return ""
	}
	return user.FullName
}

func (h *Handler) sendBot(ctx context.Context, conn *websocket.Conn, userID, sessionID string, state conversation.State, reply string) error {
	h.transcript.Log(TranscriptEvent{
		UserID:    userID,
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		EventType: EventBotMessage,
		State:     string(state),
		Content:   reply,
		Progress:  conversation.Progress(state),
	})
	return h.send(ctx, conn, serverMessage{
		Type:    typeBotMessage,
		Content: reply,
		Data:    map[string]any{"state": string(state)},
	})
}

func (h *Handler) sendStateUpdate(ctx context.Context, conn *websocket.Conn, state conversation.State) error {
	return h.send(ctx, conn, serverMessage{
		Type: typeStateUpdate,
		Data: map[string]any{
			"current_state": string(state),
			"progress":      conversation.Progress(state),
		},
	})
}

// speak streams the reply as synthesized audio when a speech backend is
// configured. Synthesis failures are logged and otherwise ignored so the
// text conversation is never blocked on TTS.
func (h *Handler) speak(ctx context.Context, conn *websocket.Conn, text string) {
	if !h.assistant.SpeechEnabled() {
		return
	}
	audio, err := h.assistant.Synthesize(ctx, text)
	if err != nil {
		slog.Warn("Speech synthesis failed", "error", err)
		return
	}
	h.send(ctx, conn, serverMessage{
		Type:    typeBotAudio,
		Content: base64.StdEncoding.EncodeToString(audio),
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg serverMessage) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
