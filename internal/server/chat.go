package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/agent-chat-demo/server/internal/agent/model"
	errx "github.com/agent-chat-demo/server/internal/core/error"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// maxFormBytes bounds the chat form body (prompt + selected file names).
const maxFormBytes = 1 << 20

// handleGetChat dumps the stored transcript as newline-delimited JSON.
func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	records, err := s.transcripts.Transcript(r.Context(), defaultConversationID)
	if err != nil {
		writeError(w, errx.Internal(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	enc := json.NewEncoder(w)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			logx.Error().Err(err).Msg("failed to write transcript record")
			return
		}
	}
}

// handleClearChat empties the transcript.
func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	if err := s.transcripts.Clear(r.Context(), defaultConversationID); err != nil {
		writeError(w, errx.Internal(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePostChat runs the agent for one prompt and relays its output as
// newline-delimited JSON. The first line echoes the user prompt so the
// browser can render it immediately; each following line carries the
// accumulated model text so far.
func (s *Server) handlePostChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, errx.BadRequest("invalid form body"))
		return
	}

	prompt := strings.TrimSpace(r.PostFormValue("prompt"))
	if prompt == "" {
		writeError(w, errx.BadRequest("prompt is required"))
		return
	}
	selectedFiles := r.PostForm["selected_files"]

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errx.Internal(errors.New("response writer does not support streaming")))
		return
	}

	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := logx.With("chat").With().Str("request_id", reqID).Logger()

	// The agent sees the prompt plus any selected file contents; the browser
	// echo and the live stream show the bare prompt.
	fullPrompt := s.promptWithFileContext(prompt, selectedFiles)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	enc := json.NewEncoder(w)
	writeRecord := func(m model.ChatMessage) error {
		if err := enc.Encode(m); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := writeRecord(model.NewUserChatMessage(prompt, time.Now())); err != nil {
		log.Debug().Err(err).Msg("client went away before first record")
		return
	}

	stream, err := s.runner.Stream(ctx, model.QueryInput{
		ConversationID: defaultConversationID,
		Prompt:         fullPrompt,
	})
	if err != nil {
		// Headers are gone; all we can do is log and drop the stream.
		log.Error().Err(err).Msg("agent run failed to start")
		return
	}
	defer stream.Close()

	var response strings.Builder
	respTime := time.Now().UTC()
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error().Err(err).Msg("agent stream failed")
			return
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		response.WriteString(chunk.Content)
		if err := writeRecord(model.NewModelChatMessage(response.String(), respTime)); err != nil {
			log.Debug().Err(err).Msg("client disconnected mid-stream")
			return
		}
	}

	if response.Len() == 0 {
		log.Warn().Msg("agent produced no output")
		return
	}

	// The request context may already be cancelled by the time the stream is
	// drained; the transcript write must still happen.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.transcripts.SaveResponse(saveCtx, defaultConversationID, response.String(), respTime); err != nil {
		log.Error().Err(err).Msg("failed to save assistant response")
	}
}
