package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-chat-demo/server/internal/agent/model"
)

func entry(role schema.RoleType, content string) *model.TranscriptEntry {
	return &model.TranscriptEntry{
		Message:   &schema.Message{Role: role, Content: content},
		Timestamp: time.Now().UTC(),
	}
}

func TestAddAndLoadPreservesOrder(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "default", entry(schema.User, "hello")))
	require.NoError(t, r.AddMessage(ctx, "default", entry(schema.Assistant, "hi there")))
	require.NoError(t, r.AddMessage(ctx, "default", entry(schema.User, "how are you")))

	history, err := r.LoadHistory(ctx, "default")
	require.NoError(t, err)
	require.Len(t, history.Entries, 3)
	assert.Equal(t, "hello", history.Entries[0].Message.Content)
	assert.Equal(t, schema.Assistant, history.Entries[1].Message.Role)
	assert.Equal(t, "how are you", history.Entries[2].Message.Content)

	n, err := r.MessageCount(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLoadHistoryUnknownConversationIsEmpty(t *testing.T) {
	r := NewMemoryConversationRepository()

	history, err := r.LoadHistory(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, history.Entries)
	assert.Equal(t, "nope", history.ConversationID)
}

func TestClearHistory(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "default", entry(schema.User, "hello")))
	require.NoError(t, r.ClearHistory(ctx, "default"))

	n, err := r.MessageCount(ctx, "default")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadHistoryReturnsCopy(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "default", entry(schema.User, "one")))
	history, err := r.LoadHistory(ctx, "default")
	require.NoError(t, err)

	// Mutating the returned slice must not affect the stored transcript.
	history.Entries[0] = entry(schema.User, "mutated")
	reloaded, err := r.LoadHistory(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "one", reloaded.Entries[0].Message.Content)
}

func TestConcurrentAppends(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = r.AddMessage(ctx, "default", entry(schema.User, fmt.Sprintf("w%d-%d", id, j)))
			}
		}(i)
	}
	wg.Wait()

	n, err := r.MessageCount(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, n)
}
