package nodes

import (
	"github.com/agent-chat-demo/server/internal/agent/model"
)

// DefaultMaxToolCalls caps tool invocations per query when the configured
// limit is missing or invalid.
const DefaultMaxToolCalls = 5

func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit reports whether the tool budget is already spent,
// marking the state the first time it is. Called before the model runs so
// the wrap-up notice is injected exactly once.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	if state.ToolCallLimitReached {
		return false
	}
	if state.ToolCallCount >= normalizeMaxToolCalls(max) {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// incrementToolCallAndCheck charges one call against the budget and reports
// whether it went over.
func incrementToolCallAndCheck(state *model.AppState, max int) bool {
	state.ToolCallCount++
	if state.ToolCallCount > normalizeMaxToolCalls(max) {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}
