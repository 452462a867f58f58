package observers

import (
	"context"
	"errors"
	"io"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/agent-chat-demo/server/internal/agent/model"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// newModelHandler builds a typed ModelCallbackHandler that logs model call
// lifecycles and, for streamed calls, usage cost from the trailing chunks.
func newModelHandler(modelName string) *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			messages := 0
			if input != nil {
				messages = len(input.Messages)
			}
			logx.Debug().
				Str("node", info.Name).
				Int("context_messages", messages).
				Msg("model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			if output != nil {
				logUsage(modelName, output.TokenUsage)
			}
			logx.Debug().Str("node", info.Name).Msg("model call finished")
			return ctx
		},
		OnEndWithStreamOutput: func(ctx context.Context, info *einocb.RunInfo, output *schema.StreamReader[*einomodel.CallbackOutput]) context.Context {
			// The callback owns this stream copy; drain it off the hot path.
			go func() {
				defer output.Close()
				var usage *einomodel.TokenUsage
				for {
					chunk, err := output.Recv()
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						return
					}
					if chunk != nil && chunk.TokenUsage != nil {
						usage = chunk.TokenUsage
					}
				}
				logUsage(modelName, usage)
				logx.Debug().Str("node", info.Name).Msg("model stream finished")
			}()
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Msg("model call failed")
			return ctx
		},
	}
}

// logUsage converts provider token usage into USD cost and logs both.
func logUsage(modelName string, usage *einomodel.TokenUsage) {
	if usage == nil || !model.CostEnabled() {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(&schema.TokenUsage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}, pricing)

	logx.Debug().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
