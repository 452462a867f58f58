package repo

import (
	"context"
	"sync"

	"github.com/agent-chat-demo/server/internal/agent/model"
)

// MemoryConversationRepository keeps transcripts in process memory. The HTTP
// server serves requests concurrently, so the shared map is mutex-guarded;
// nothing survives a restart.
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string][]*model.TranscriptEntry
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string][]*model.TranscriptEntry),
	}
}

func (r *MemoryConversationRepository) AddMessage(ctx context.Context, conversationID string, entry *model.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conversationID] = append(r.conversations[conversationID], entry)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.conversations[conversationID]
	entries := make([]*model.TranscriptEntry, len(stored))
	copy(entries, stored)

	return &model.ConversationHistory{ConversationID: conversationID, Entries: entries}, nil
}

func (r *MemoryConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}

func (r *MemoryConversationRepository) MessageCount(ctx context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations[conversationID]), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
