package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/agent-chat-demo/server/internal/agent/graph"
	"github.com/agent-chat-demo/server/internal/agent/graph/conversations"
	"github.com/agent-chat-demo/server/internal/agent/model"
	"github.com/agent-chat-demo/server/internal/agent/repo"
	"github.com/agent-chat-demo/server/internal/core"
	"github.com/agent-chat-demo/server/internal/server"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// AppConfig defines all configurable parameters for the chat demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Components
	Server       model.ServerConfig
	Chat         model.ChatModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
	Files        model.FilesConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	// Transcript store: in-memory, cleared on restart.
	store := repo.NewMemoryConversationRepository()
	transcripts := conversations.NewTranscriptManager(store, envCfg.Conversation)

	runner, err := graph.BuildChatGraph(ctx, graph.Config{
		APIKey:       envCfg.APIKey,
		BaseURL:      envCfg.BaseURL,
		ChatModel:    envCfg.Chat,
		Prompt:       envCfg.Prompt,
		Conversation: envCfg.Conversation,
		Transcripts:  transcripts,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build chat graph")
	}

	srv := server.NewServer(envCfg.Server, runner, transcripts, envCfg.Files)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Fatal().Err(err).Msg("server exited with error")
	}

	logx.Info().Msg("server stopped")
}
