// Bind IQ - Insurance Onboarding Chatbot Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/bindiq/onboarding-server/internal/ai"
	"github.com/bindiq/onboarding-server/internal/api"
	"github.com/bindiq/onboarding-server/internal/chat"
	"github.com/bindiq/onboarding-server/internal/config"
	"github.com/bindiq/onboarding-server/internal/identity"
	"github.com/bindiq/onboarding-server/internal/middleware"
	"github.com/bindiq/onboarding-server/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Initialize the AI sidecar (optional). Without an API key the canned
	// prompts are sent verbatim and voice features are off.
	var assistant ai.Assistant = ai.Static{}
	if cfg.AIEnabled() {
		client, err := ai.NewClient(ai.Config{
			APIKey:   cfg.OpenAI.APIKey,
			Model:    cfg.OpenAI.Model,
			TTSVoice: cfg.OpenAI.TTSVoice,
		}, logger)
		if err != nil {
			slog.Warn("Failed to initialize OpenAI client, AI features will be disabled", "error", err)
		} else {
			assistant = client
			slog.Info("OpenAI sidecar initialized", "model", cfg.OpenAI.Model)
		}
	} else {
		slog.Info("AI features disabled (OPENAI_API_KEY not set)")
	}

	transcript, err := chat.NewTranscriptLogger(chat.TranscriptConfig{
		Enabled:       cfg.Transcript.Enabled,
		Dir:           cfg.Transcript.Dir,
		GlobalEnabled: cfg.Transcript.GlobalEnabled,
		GlobalPath:    cfg.Transcript.GlobalPath,
		QueueSize:     cfg.Transcript.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcript.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	// Initialize services.
	sessions := chat.NewSessionManager()

	origins := []string{"*"}
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}

	// Initialize handlers.
	baseHandler := api.NewHandler(repo)
	healthHandler := api.NewHealthHandler(repo)
	onboardingHandler := api.NewOnboardingHandler(baseHandler, assistant.SpeechEnabled())
	wsHandler := chat.NewHandler(repo, sessions, assistant, transcript, origins, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(origins))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)

	// All routes use identity middleware (no auth needed).
	onboardingHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Create server.
	// Note: WebSocket connections require long timeouts (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start cleanup worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chat.StartCleanupWorker(ctx, repo, sessions, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
