package conversations

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/agent-chat-demo/server/internal/agent/model"
)

// TranscriptManager mediates between the agent graph / HTTP handlers and the
// conversation repository: it owns timestamps, context assembly, and the
// wire-format dump.
type TranscriptManager struct {
	conversationRepo model.ConversationRepository
	contextMaxTurns  int
}

func NewTranscriptManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *TranscriptManager {
	return &TranscriptManager{
		conversationRepo: conversationRepo,
		contextMaxTurns:  config.Context.MaxTurns,
	}
}

// SaveUserPrompt records the user prompt in the transcript.
func (tm *TranscriptManager) SaveUserPrompt(ctx context.Context, conversationID, prompt string) error {
	return tm.conversationRepo.AddMessage(ctx, conversationID, &model.TranscriptEntry{
		Message:   schema.UserMessage(prompt),
		Timestamp: time.Now().UTC(),
	})
}

// SaveResponse records the final assistant text in the transcript. The
// timestamp comes from the caller so it matches what was streamed.
func (tm *TranscriptManager) SaveResponse(ctx context.Context, conversationID, content string, ts time.Time) error {
	return tm.conversationRepo.AddMessage(ctx, conversationID, &model.TranscriptEntry{
		Message:   schema.AssistantMessage(content, nil),
		Timestamp: ts.UTC(),
	})
}

// BuildModelContext assembles [system] + recent transcript messages for the
// chat model. The latest user prompt must already be in the transcript.
func (tm *TranscriptManager) BuildModelContext(ctx context.Context, conversationID, systemPrompt string) ([]*schema.Message, error) {
	history, err := tm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}
	messages = append(messages, trimTail(history.Messages(), tm.contextMaxTurns)...)

	return messages, nil
}

// Transcript converts the stored history into browser wire records.
func (tm *TranscriptManager) Transcript(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	history, err := tm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ChatMessage, 0, len(history.Entries))
	for _, e := range history.Entries {
		cm, err := model.ToChatMessage(e)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, nil
}

// Clear drops the whole transcript for a conversation.
func (tm *TranscriptManager) Clear(ctx context.Context, conversationID string) error {
	return tm.conversationRepo.ClearHistory(ctx, conversationID)
}

// ====================== Helper function ======================
// trimTail keeps the most recent maxTurns messages; zero keeps everything.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
