package tools

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Tool names bound to the chat model. Referenced from the system prompt so
// the model knows what it can call.
const (
	ToolWebSearch = "web_search"
	ToolReadPage  = "read_page"
)

// httpClient is shared by all tools: bounded waits, default redirect policy.
var httpClient = &http.Client{Timeout: 20 * time.Second}

// GetChatTools returns the tools available to the chat agent.
func GetChatTools() []tool.BaseTool {
	return []tool.BaseTool{
		createWebSearchTool(),
		createReadPageTool(),
	}
}

// GetToolInfos resolves ToolInfo for every tool so they can be bound to the model.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
