package model

import (
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Roles of the browser wire format. The transcript only ever holds user
// prompts and final assistant text; anything else is a bug upstream.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is the newline-delimited JSON record streamed to the browser.
type ChatMessage struct {
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

// NewUserChatMessage builds the wire record for a user prompt.
func NewUserChatMessage(content string, ts time.Time) ChatMessage {
	return ChatMessage{Role: RoleUser, Timestamp: ts.UTC().Format(time.RFC3339Nano), Content: content}
}

// NewModelChatMessage builds the wire record for model output.
func NewModelChatMessage(content string, ts time.Time) ChatMessage {
	return ChatMessage{Role: RoleModel, Timestamp: ts.UTC().Format(time.RFC3339Nano), Content: content}
}

// ToChatMessage converts a transcript entry into the wire format. Roles other
// than user/assistant are rejected so protocol drift fails visibly.
func ToChatMessage(e *TranscriptEntry) (ChatMessage, error) {
	if e == nil || e.Message == nil {
		return ChatMessage{}, fmt.Errorf("nil transcript entry")
	}
	switch e.Message.Role {
	case schema.User:
		return NewUserChatMessage(e.Message.Content, e.Timestamp), nil
	case schema.Assistant:
		return NewModelChatMessage(e.Message.Content, e.Timestamp), nil
	default:
		return ChatMessage{}, fmt.Errorf("unexpected message role %q in transcript", e.Message.Role)
	}
}
