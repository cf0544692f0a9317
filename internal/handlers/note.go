package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/service"
)

// NoteHandler handles note CRUD and serves notes as rendered HTML pages.
type NoteHandler struct {
	notes    service.NoteService
	parser   goldmark.Markdown
	template *template.Template
}

// NoteRequest is the body of POST /note and PUT /note/{id}.
type NoteRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title     string
	UpdatedAt string
	Tags      []string
	Content   template.HTML
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes service.NoteService) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} | Lesson Archiver</title>
  <style>
    body {
      font-family: Georgia, 'Times New Roman', serif;
      margin: 0 auto;
      padding: 2rem 1.5rem;
      max-width: 760px;
      line-height: 1.6;
      color: #1f2328;
      background: #fdfcf8;
    }
    header {
      border-bottom: 1px solid #d8d4c8;
      margin-bottom: 1.5rem;
    }
    h1 {
      margin: 0 0 0.25rem;
      font-size: 1.9rem;
    }
    .meta {
      color: #6b6757;
      font-size: 0.9rem;
    }
    pre {
      background: #f3f1ea;
      padding: 0.75rem 1rem;
      overflow-x: auto;
      border-radius: 4px;
    }
    code {
      font-family: Menlo, Consolas, monospace;
      font-size: 0.9em;
    }
    table {
      border-collapse: collapse;
    }
    th, td {
      border: 1px solid #d8d4c8;
      padding: 0.3rem 0.6rem;
    }
    blockquote {
      margin-left: 0;
      padding-left: 1rem;
      border-left: 3px solid #c9b98a;
      color: #4a473d;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">Updated {{.UpdatedAt}}{{range .Tags}} &middot; {{.}}{{end}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	// Raw HTML in note bodies is not rendered: notes are user input.
	return &NoteHandler{
		notes: notes,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

func (r NoteRequest) input() service.NoteInput {
	return service.NoteInput{Title: r.Title, Body: r.Body, Tags: r.Tags}
}

// Create handles POST /note.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.notes.Create(ctx, owner, req.input())
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create note")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNoteResponse(note))
}

// List handles GET /notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	notes, err := h.notes.List(ctx, owner, page)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list notes")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNoteResponses(notes))
}

// Get handles GET /note/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	note, err := h.notes.Get(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load note")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNoteResponse(note))
}

// Update handles PUT /note/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.notes.Update(ctx, owner, chi.URLParam(r, "id"), req.input())
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update note")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNoteResponse(note))
}

// Delete handles DELETE /note/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	note, err := h.notes.Delete(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete note")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNoteResponse(note))
}

// HTML handles GET /note/{id}/html, rendering the note body from Markdown.
func (h *NoteHandler) HTML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	note, err := h.notes.Get(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load note")
		return
	}

	htmlContent, err := h.renderMarkdown([]byte(note.Body))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "note_id", note.ID, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	pageData := notePageData{
		Title:     note.Title,
		UpdatedAt: note.UpdatedAt.UTC().Format(time.RFC1123),
		Tags:      tagLabels(note.Tags),
		Content:   template.HTML(htmlContent),
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", note.ID, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *NoteHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// tagLabels renders each tag as its path joined with " / ".
func tagLabels(tags []service.Tag) []string {
	labels := make([]string, len(tags))
	for i, tag := range tags {
		names := make([]string, len(tag.Path))
		for j, ref := range tag.Path {
			names[j] = ref.Name
		}
		labels[i] = strings.Join(names, " / ")
	}
	return labels
}
