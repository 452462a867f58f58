package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agent-chat-demo/server/internal/agent/graph"
	"github.com/agent-chat-demo/server/internal/agent/graph/conversations"
	"github.com/agent-chat-demo/server/internal/agent/model"
	errx "github.com/agent-chat-demo/server/internal/core/error"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// defaultConversationID pins the single shared transcript. The demo has no
// sessions; every browser talks to the same conversation.
const defaultConversationID = "default"

// Server is the HTTP front of the chat demo.
type Server struct {
	config      model.ServerConfig
	runner      graph.Runner
	transcripts *conversations.TranscriptManager
	files       model.FilesConfig
	router      chi.Router
}

// NewServer creates the server and wires all routes.
func NewServer(
	cfg model.ServerConfig,
	runner graph.Runner,
	transcripts *conversations.TranscriptManager,
	files model.FilesConfig,
) *Server {
	s := &Server{
		config:      cfg,
		runner:      runner,
		transcripts: transcripts,
		files:       files,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures middleware and all endpoints.
func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	// Demo posture: allow all origins.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleIndex)
	r.Get("/chat_app.ts", s.handleAppScript)
	r.Handle("/static/*", s.staticHandler())

	r.Get("/chat/", s.handleGetChat)
	r.Post("/chat/", s.handlePostChat)
	r.Post("/chat/clear", s.handleClearChat)

	r.Get("/files/", s.handleListFiles)
	r.Get("/files/{filename}", s.handleGetFile)

	s.router = r
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// writeError serializes an error as {"error": message} with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	status := errx.Status(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]any{"error": errx.SafeMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && !errors.Is(err, context.Canceled) {
		logx.Error().Err(err).Msg("failed to write response")
	}
}
