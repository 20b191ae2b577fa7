package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// TranscriptConfig controls NDJSON transcript logging.
type TranscriptConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// TranscriptEvent is one NDJSON line of a conversation transcript.
type TranscriptEvent struct {
	Timestamp string `json:"ts,omitempty"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role,omitempty"`
	EventType string `json:"event_type"`
	State     string `json:"state,omitempty"`
	Content   string `json:"content,omitempty"`
	Progress  int    `json:"progress,omitempty"`
}

// Transcript event types.
const (
	EventUserMessage       = "user_message"
	EventBotMessage        = "bot_message"
	EventValidationFailure = "validation_failure"
)

// TranscriptLogger writes conversation transcripts as NDJSON, one file per
// user/session plus an optional global stream. Writes happen on a worker
// goroutine; when the queue is full events are dropped rather than blocking
// the conversation loop.
type TranscriptLogger struct {
	cfg       TranscriptConfig
	logger    *slog.Logger
	queue     chan TranscriptEvent
	done      chan struct{}
	dropped   atomic.Int64
	closeOnce sync.Once
}

// NewTranscriptLogger creates a transcript logger. A disabled config yields
// a logger whose Log is a no-op.
func NewTranscriptLogger(cfg TranscriptConfig, logger *slog.Logger) (*TranscriptLogger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := &TranscriptLogger{cfg: cfg, logger: logger}
	if !cfg.Enabled && !cfg.GlobalEnabled {
		return t, nil
	}

	if cfg.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create transcript directory: %w", err)
		}
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0755); err != nil {
			return nil, fmt.Errorf("create global transcript directory: %w", err)
		}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	t.queue = make(chan TranscriptEvent, queueSize)
	t.done = make(chan struct{})
	go t.run()

	return t, nil
}

// Log enqueues an event for writing. Never blocks; events are dropped when
// the queue is full.
func (t *TranscriptLogger) Log(event TranscriptEvent) {
	if t == nil || t.queue == nil {
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	select {
	case t.queue <- event:
	default:
		if n := t.dropped.Add(1); n%100 == 1 {
			t.logger.Warn("transcript queue full, dropping events", "dropped_total", n)
		}
	}
}

// Close drains the queue and stops the worker.
func (t *TranscriptLogger) Close() error {
	if t == nil || t.queue == nil {
		return nil
	}
	t.closeOnce.Do(func() {
		close(t.queue)
		<-t.done
	})
	return nil
}

func (t *TranscriptLogger) run() {
	defer close(t.done)
	for event := range t.queue {
		t.write(event)
	}
}

func (t *TranscriptLogger) write(event TranscriptEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		t.logger.Warn("failed to encode transcript event", "error", err)
		return
	}
	line = append(line, '\n')

	if t.cfg.Enabled {
		dir := filepath.Join(t.cfg.Dir, event.UserID)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.logger.Warn("failed to create transcript session directory", "error", err)
		} else {
			path := filepath.Join(dir, event.SessionID+".ndjson")
			if err := appendLine(path, line); err != nil {
				t.logger.Warn("failed to write transcript", "path", path, "error", err)
			}
		}
	}

	if t.cfg.GlobalEnabled {
		if err := appendLine(t.cfg.GlobalPath, line); err != nil {
			t.logger.Warn("failed to write global transcript", "path", t.cfg.GlobalPath, "error", err)
		}
	}
}

func appendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append transcript line: %w", err)
	}
	return nil
}
