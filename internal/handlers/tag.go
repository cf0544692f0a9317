package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lessonarchiver/internal/service"
)

// TagHandler handles the tag hierarchy.
type TagHandler struct {
	tags service.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// CreateTagRequest is the body of POST /tag.
type CreateTagRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// List handles GET /tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tags, err := h.tags.List(ctx, owner, r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list tags")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toTagResponses(tags))
}

// Create handles POST /tag.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req CreateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.tags.Create(ctx, owner, service.TagInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create tag")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toTagResponse(tag))
}

// Delete handles DELETE /tag/{id}.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tag, err := h.tags.Delete(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete tag")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toTagResponse(tag))
}
