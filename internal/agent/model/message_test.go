package model

import (
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToChatMessageRoles(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := ToChatMessage(&TranscriptEntry{Message: schema.UserMessage("hi"), Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, got.Role)
	assert.Equal(t, "hi", got.Content)
	assert.Equal(t, ts.Format(time.RFC3339Nano), got.Timestamp)

	got, err = ToChatMessage(&TranscriptEntry{Message: schema.AssistantMessage("hello", nil), Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, RoleModel, got.Role)
}

func TestToChatMessageRejectsUnexpectedRoles(t *testing.T) {
	ts := time.Now()

	_, err := ToChatMessage(&TranscriptEntry{Message: schema.SystemMessage("rules"), Timestamp: ts})
	assert.Error(t, err)

	_, err = ToChatMessage(&TranscriptEntry{Message: schema.ToolMessage("result", "call_1"), Timestamp: ts})
	assert.Error(t, err)

	_, err = ToChatMessage(nil)
	assert.Error(t, err)
}

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}
	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 1.25, out, 1e-9)
	assert.InDelta(t, 1.55, total, 1e-9)

	in, out, total = ComputeCost(usage, ResolvePricing("unknown-model"))
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, total)
}
