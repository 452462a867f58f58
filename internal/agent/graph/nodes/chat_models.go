package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/agent-chat-demo/server/internal/agent/model"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Chat    *model.ChatModelConfig
}

// ChatModels holds the chat model used by the graph
type ChatModels struct {
	Chat          *gemini.ChatModel
	ChatModelName string
}

// NewChatModels creates the chat model with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Chat.Model,
		Temperature: &config.Chat.Temperature,
		MaxTokens:   &config.Chat.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return &ChatModels{
		Chat:          chatModel,
		ChatModelName: config.Chat.Model,
	}, nil
}

// BindTools binds tools to the chat model
func (cm *ChatModels) BindTools(ctx context.Context, tools []*schema.ToolInfo) error {
	if err := cm.Chat.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tools", len(tools)).Msg("bound tools to chat model")
	return nil
}

// NewChatModelNode creates a wrapper for the chat model to be used as a node
func NewChatModelNode(chatModel *gemini.ChatModel) *gemini.ChatModel {
	return chatModel
}
