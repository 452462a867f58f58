package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/agent-chat-demo/server/internal/agent/graph/tools"
	"github.com/agent-chat-demo/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var chatSystemPrompt string

// RenderChatSystem renders the chat system prompt via the Eino prompt
// component (Go template) so prompt callbacks fire.
func RenderChatSystem(ctx context.Context, config model.PromptConfig) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(chatSystemPrompt),
	)
	vars := map[string]any{
		"AssistantName": config.AssistantName,
		"Instructions":  config.Instructions,
		"SearchTool":    tools.ToolWebSearch,
		"ReadPageTool":  tools.ToolReadPage,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("chat prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("chat prompt render: empty result")
	}
	return msgs[0].Content, nil
}
