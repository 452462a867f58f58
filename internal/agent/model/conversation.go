package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// TranscriptEntry pairs a stored message with the wall-clock time it was
// recorded; the browser wire format exposes the timestamp, schema.Message
// does not carry one.
type TranscriptEntry struct {
	Message   *schema.Message `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Entries        []*TranscriptEntry
}

// Messages flattens the history into the raw message slice used as model context.
func (h *ConversationHistory) Messages() []*schema.Message {
	msgs := make([]*schema.Message, 0, len(h.Entries))
	for _, e := range h.Entries {
		if e == nil || e.Message == nil {
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return msgs
}

type ConversationRepository interface {
	// AddMessage appends an entry to the conversation transcript
	AddMessage(ctx context.Context, conversationID string, entry *TranscriptEntry) error

	// LoadHistory retrieves the transcript for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all transcript entries for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// MessageCount returns the number of entries in the conversation
	MessageCount(ctx context.Context, conversationID string) (int, error)
}
