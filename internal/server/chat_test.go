package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-chat-demo/server/internal/agent/graph/conversations"
	"github.com/agent-chat-demo/server/internal/agent/model"
	"github.com/agent-chat-demo/server/internal/agent/repo"
)

// stubRunner replays canned chunks instead of calling a model.
type stubRunner struct {
	chunks    []string
	err       error
	lastInput model.QueryInput
}

func (r *stubRunner) Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[*schema.Message], error) {
	r.lastInput = in
	if r.err != nil {
		return nil, r.err
	}
	msgs := make([]*schema.Message, 0, len(r.chunks))
	for _, c := range r.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

func newTestServer(t *testing.T, runner *stubRunner) (*Server, *conversations.TranscriptManager) {
	t.Helper()
	transcripts := conversations.NewTranscriptManager(repo.NewMemoryConversationRepository(), model.ConversationConfig{})
	srv := NewServer(model.ServerConfig{}, runner, transcripts, model.FilesConfig{Dir: t.TempDir()})
	return srv, transcripts
}

func postChatForm(srv *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeRecords(t *testing.T, body string) []model.ChatMessage {
	t.Helper()
	var out []model.ChatMessage
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var m model.ChatMessage
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestPostChatStreamsEchoThenAccumulatedResponse(t *testing.T) {
	runner := &stubRunner{chunks: []string{"Hello", ", ", "world"}}
	srv, _ := newTestServer(t, runner)

	rec := postChatForm(srv, url.Values{"prompt": {"hi there"}})

	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeRecords(t, rec.Body.String())
	require.Len(t, records, 4)

	assert.Equal(t, model.RoleUser, records[0].Role)
	assert.Equal(t, "hi there", records[0].Content)

	// Each model line carries the text accumulated so far.
	assert.Equal(t, "Hello", records[1].Content)
	assert.Equal(t, "Hello, ", records[2].Content)
	assert.Equal(t, "Hello, world", records[3].Content)
	for _, m := range records[1:] {
		assert.Equal(t, model.RoleModel, m.Role)
	}

	// Model lines update a single message, so they share one timestamp.
	assert.Equal(t, records[1].Timestamp, records[3].Timestamp)

	assert.Equal(t, "hi there", runner.lastInput.Prompt)
}

func TestPostChatSavesFinalResponse(t *testing.T) {
	runner := &stubRunner{chunks: []string{"The answer ", "is 4."}}
	srv, transcripts := newTestServer(t, runner)

	rec := postChatForm(srv, url.Values{"prompt": {"what is 2+2?"}})
	require.Equal(t, http.StatusOK, rec.Code)

	records, err := transcripts.Transcript(t.Context(), defaultConversationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.RoleModel, records[0].Role)
	assert.Equal(t, "The answer is 4.", records[0].Content)
}

func TestPostChatIncludesSelectedFileContext(t *testing.T) {
	runner := &stubRunner{chunks: []string{"ok"}}
	srv, _ := newTestServer(t, runner)
	writeTestFile(t, srv.files.Dir, "notes.txt", "remember the milk")

	rec := postChatForm(srv, url.Values{
		"prompt":         {"summarize my notes"},
		"selected_files": {"notes.txt"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The agent sees the file context, the browser echo does not.
	assert.Contains(t, runner.lastInput.Prompt, "summarize my notes\n\nContext:\n")
	assert.Contains(t, runner.lastInput.Prompt, "File: notes.txt\n```\nremember the milk\n```")

	records := decodeRecords(t, rec.Body.String())
	require.NotEmpty(t, records)
	assert.Equal(t, "summarize my notes", records[0].Content)
}

func TestPostChatRequiresPrompt(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{})

	rec := postChatForm(srv, url.Values{"prompt": {"   "}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "prompt is required", body["error"])
}

func TestPostChatRunnerFailureStillEchoesPrompt(t *testing.T) {
	runner := &stubRunner{err: errors.New("model unavailable")}
	srv, transcripts := newTestServer(t, runner)

	rec := postChatForm(srv, url.Values{"prompt": {"hello?"}})

	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeRecords(t, rec.Body.String())
	require.Len(t, records, 1)
	assert.Equal(t, model.RoleUser, records[0].Role)

	saved, err := transcripts.Transcript(t.Context(), defaultConversationID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestGetChatDumpsTranscriptInOrder(t *testing.T) {
	srv, transcripts := newTestServer(t, &stubRunner{})
	ctx := t.Context()
	require.NoError(t, transcripts.SaveUserPrompt(ctx, defaultConversationID, "first question"))
	require.NoError(t, transcripts.SaveResponse(ctx, defaultConversationID, "first answer", time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/chat/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeRecords(t, rec.Body.String())
	require.Len(t, records, 2)
	assert.Equal(t, model.RoleUser, records[0].Role)
	assert.Equal(t, "first question", records[0].Content)
	assert.Equal(t, model.RoleModel, records[1].Role)
	assert.Equal(t, "first answer", records[1].Content)
}

func TestClearChatEmptiesTranscript(t *testing.T) {
	srv, transcripts := newTestServer(t, &stubRunner{})
	ctx := t.Context()
	require.NoError(t, transcripts.SaveUserPrompt(ctx, defaultConversationID, "to be forgotten"))

	req := httptest.NewRequest(http.MethodPost, "/chat/clear", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/chat/", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeRecords(t, rec.Body.String()))
}
