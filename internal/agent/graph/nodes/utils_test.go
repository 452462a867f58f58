package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agent-chat-demo/server/internal/agent/model"
)

func TestNormalizeMaxToolCalls(t *testing.T) {
	assert.Equal(t, DefaultMaxToolCalls, normalizeMaxToolCalls(0))
	assert.Equal(t, DefaultMaxToolCalls, normalizeMaxToolCalls(-3))
	assert.Equal(t, 7, normalizeMaxToolCalls(7))
}

func TestCheckAndMarkToolLimit(t *testing.T) {
	state := &model.AppState{ToolCallCount: 2}
	assert.False(t, checkAndMarkToolLimit(state, 3))
	assert.False(t, state.ToolCallLimitReached)

	state.ToolCallCount = 3
	assert.True(t, checkAndMarkToolLimit(state, 3))
	assert.True(t, state.ToolCallLimitReached)

	// already marked: not marked "now" again
	assert.False(t, checkAndMarkToolLimit(state, 3))
}

func TestIncrementToolCallAndCheck(t *testing.T) {
	state := &model.AppState{}

	for i := 1; i <= 2; i++ {
		assert.False(t, incrementToolCallAndCheck(state, 2))
	}
	assert.True(t, incrementToolCallAndCheck(state, 2))
	assert.True(t, state.ToolCallLimitReached)
	assert.Equal(t, 3, state.ToolCallCount)
}
