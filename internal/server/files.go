package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	errx "github.com/agent-chat-demo/server/internal/core/error"
	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// imageExtensions are rendered as placeholders instead of inline content.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// isValidFilename rejects anything that could escape the files directory.
func isValidFilename(name string) bool {
	if name == "" {
		return false
	}
	return !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// handleListFiles returns the sorted names of non-hidden regular files in
// the files directory. Listing failures degrade to an empty list with an
// error field rather than a failed request.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.files.Dir)
	if err != nil {
		logx.Error().Err(err).Str("dir", s.files.Dir).Msg("failed to list files")
		writeJSON(w, http.StatusOK, map[string]any{"files": []string{}, "error": err.Error()})
		return
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// handleGetFile returns the content of one file from the files directory.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !isValidFilename(filename) {
		writeError(w, errx.BadRequest(errx.InvalidFilenameMessage))
		return
	}

	path := filepath.Join(s.files.Dir, filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, errx.NotFound(errx.FileNotFoundMessage))
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		writeError(w, errx.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"content": string(content)})
}

// promptWithFileContext appends the selected files to the prompt sent to the
// agent. Failures degrade to error strings inside the context so the model
// can report them instead of the request dying.
func (s *Server) promptWithFileContext(prompt string, selectedFiles []string) string {
	if len(selectedFiles) == 0 {
		return prompt
	}

	contexts := make([]string, 0, len(selectedFiles))
	for _, name := range selectedFiles {
		contexts = append(contexts, s.processFile(name))
	}

	return prompt + "\n\nContext:\n" + strings.Join(contexts, "\n\n")
}

// processFile renders one selected file as prompt context: fenced content
// for text files, placeholders for binary formats.
func (s *Server) processFile(name string) string {
	if !isValidFilename(name) {
		return fmt.Sprintf("Error: Invalid filename %s", name)
	}

	path := filepath.Join(s.files.Dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Sprintf("Error: File not found %s", name)
	}

	switch ext := strings.ToLower(filepath.Ext(name)); {
	case imageExtensions[ext]:
		return fmt.Sprintf("[Image: %s]", name)
	case ext == ".pdf":
		return fmt.Sprintf("[PDF: %s]", name)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading file %s: %v", name, err)
	}
	return fmt.Sprintf("File: %s\n```\n%s\n```", name, content)
}
