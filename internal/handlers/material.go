package handlers

import (
	"net/http"

	"lessonarchiver/internal/service"
)

// MaterialHandler lists and searches files and notes together.
type MaterialHandler struct {
	materials service.MaterialService
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(materials service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// List handles GET /materials.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	pinned, ok := parsePinned(w, r)
	if !ok {
		return
	}
	materials, err := h.materials.List(ctx, owner, page, pinned)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list materials")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toMaterialResponses(materials))
}

// Search handles GET /materials/search.
func (h *MaterialHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	result, err := h.materials.Search(ctx, owner, r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to search materials")
		return
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Q:     result.Query,
		Notes: toNoteResponses(result.Notes),
		Files: toFileResponses(result.Files),
	})
}
