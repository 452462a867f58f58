package graph

import (
	"context"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agent-chat-demo/server/internal/agent/graph/conversations"
	"github.com/agent-chat-demo/server/internal/agent/graph/nodes"
	"github.com/agent-chat-demo/server/internal/agent/graph/observers"
	"github.com/agent-chat-demo/server/internal/agent/graph/tools"
	"github.com/agent-chat-demo/server/internal/agent/model"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// Runner executes the compiled graph for one prompt and exposes the model's
// incremental output. The stream yields assistant message chunks; the caller
// owns closing it.
type Runner interface {
	Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[*schema.Message], error)
}

// Config holds everything needed to compose the full chat graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the ChatModels.
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    model.ChatModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
	Transcripts  *conversations.TranscriptManager
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels   *nodes.ChatModels
	Transcripts  *conversations.TranscriptManager
	PromptConfig *model.PromptConfig
	ToolMaxCalls int
}

// GraphBuilder handles the construction of the chat graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable  compose.Runnable[model.QueryInput, *schema.Message]
	callbacks einocb.Handler
}

func (r *graphRunner) Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[*schema.Message], error) {
	return r.runnable.Stream(ctx, in, compose.WithCallbacks(r.callbacks))
}

// BuildChatGraph composes the chat model, builds the graph, and returns a Runner.
func BuildChatGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Transcripts == nil {
		return nil, fmt.Errorf("transcript manager is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Chat:    &cfg.ChatModel,
	})
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:   cms,
		Transcripts:  cfg.Transcripts,
		PromptConfig: &cfg.Prompt,
		ToolMaxCalls: cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("chat graph built successfully")
	return &graphRunner{
		runnable:  runnable,
		callbacks: observers.NewAllCallbacks(cms.ChatModelName),
	}, nil
}

// BuildGraph constructs and returns the compiled chat graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Chat == nil {
		return nil, fmt.Errorf("chat model is not properly initialized")
	}
	if config.Transcripts == nil {
		return nil, fmt.Errorf("transcript manager is nil")
	}
	if config.PromptConfig == nil {
		return nil, fmt.Errorf("prompt config is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures the agent tools and binds them to the chat model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	chatTools := tools.GetChatTools()
	toolInfos, err := tools.GetToolInfos(ctx, chatTools)
	if err != nil {
		logx.Error().Err(err).Msg("failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindTools(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("failed to bind tools to chat model")
		return fmt.Errorf("failed to bind tools to chat model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               chatTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls (e.g., empty name)
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)

	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeContextBuilder,
		nodes.NewContextBuilderNode(b.config.Transcripts, b.config.PromptConfig),
		compose.WithStatePreHandler(nodes.NewContextBuilderPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeChatModel,
		nodes.NewChatModelNode(b.config.ChatModels.Chat),
		compose.WithStatePreHandler(nodes.NewChatModelPreHandler(b.config.ToolMaxCalls)),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeContextBuilder},
		{nodes.NodeContextBuilder, nodes.NodeChatModel},
		{nodes.NodeToolExecutor, nodes.NodeChatModel},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches routes the model output stream: tool calls loop back through
// the executor, final answers flow to END.
func (b *GraphBuilder) addBranches() error {
	toolBranch := compose.NewStreamGraphBranch(
		nodes.NewToolRoutingCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeChatModel, toolBranch); err != nil {
		logx.Error().Err(err).Msg("error adding tool routing branch")
		return fmt.Errorf("error adding tool routing branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in tool retries
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("graph compiled successfully")
	return runnable, nil
}
