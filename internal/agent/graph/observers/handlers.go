package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates the model and tool observer handlers into one
// callbacks.Handler, attached per run via compose.WithCallbacks.
func NewAllCallbacks(chatModelName string) einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler(chatModelName)).
		Tool(newToolHandler()).
		Handler()
}
