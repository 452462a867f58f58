package nodes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agent-chat-demo/server/internal/agent/graph/conversations"
	"github.com/agent-chat-demo/server/internal/agent/graph/prompts"
	"github.com/agent-chat-demo/server/internal/agent/model"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// Node keys of the chat graph.
const (
	NodeContextBuilder = "ContextBuilder"
	NodeChatModel      = "ChatModel"
	NodeToolExecutor   = "ToolExecutor"
)

// NewContextBuilderPreHandler resets the per-query state.
func NewContextBuilderPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.ConversationID = in.ConversationID
		s.History = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextBuilderNode creates the node that records the user prompt and
// assembles the model context from the transcript.
func NewContextBuilderNode(
	tm *conversations.TranscriptManager,
	promptCfg *model.PromptConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		if strings.TrimSpace(input.Prompt) == "" {
			return nil, fmt.Errorf("prompt is empty")
		}

		if err := tm.SaveUserPrompt(ctx, input.ConversationID, input.Prompt); err != nil {
			return nil, fmt.Errorf("save user prompt: %w", err)
		}

		systemPrompt, err := prompts.RenderChatSystem(ctx, *promptCfg)
		if err != nil {
			return nil, fmt.Errorf("render system prompt: %w", err)
		}

		messages, err := tm.BuildModelContext(ctx, input.ConversationID, systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("build model context: %w", err)
		}

		return messages, nil
	})
}

// NewChatModelPreHandler accumulates the run history and feeds it to the
// model. It also patches trailing tool results that lack a tool_call_id
// (Gemini compat) and injects a wrap-up notice once the tool-call limit is
// reached.
func NewChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := strings.TrimSpace(msg.ToolCalls[0].ID); id != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Synthesize a final answer from what you have already gathered and "+
						"acknowledge anything you could not verify.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		return state.History, nil
	}
}

// NewToolExecutorPreHandler records the assistant tool-call message,
// synthesizes missing tool-call IDs, and counts the call against the limit.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		if in != nil {
			for i := range in.ToolCalls {
				if strings.TrimSpace(in.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					in.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
			state.History = append(state.History, in)
		}

		exceeded := incrementToolCallAndCheck(state, maxToolCalls)
		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("tool call limit exceeded, flagging and continuing")
		}

		return in, nil
	}
}

// NewToolRoutingCondition inspects the head of the model's chunk stream:
// tool calls loop back through the executor, anything else flows to END.
func NewToolRoutingCondition() func(context.Context, *schema.StreamReader[*schema.Message]) (string, error) {
	return func(ctx context.Context, sr *schema.StreamReader[*schema.Message]) (string, error) {
		defer sr.Close()

		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})
		if limitReached {
			logx.Debug().Msg("tool limit reached previously, routing to end")
			return compose.END, nil
		}

		for {
			chunk, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				return compose.END, nil
			}
			if err != nil {
				return "", err
			}
			if chunk == nil {
				continue
			}
			if len(chunk.ToolCalls) > 0 {
				logx.Debug().Int("tool_count", len(chunk.ToolCalls)).Msg("routing to tool executor")
				return NodeToolExecutor, nil
			}
			if chunk.Content != "" {
				return compose.END, nil
			}
		}
	}
}
