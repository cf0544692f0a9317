package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lessonarchiver/internal/service"
)

// CabinetHandler handles cabinets and their ordered materials.
type CabinetHandler struct {
	cabinets service.CabinetService
}

// NewCabinetHandler creates a new CabinetHandler.
func NewCabinetHandler(cabinets service.CabinetService) *CabinetHandler {
	return &CabinetHandler{cabinets: cabinets}
}

// CreateCabinetRequest is the body of POST /cabinet.
type CreateCabinetRequest struct {
	ParentID    *string `json:"parentId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateCabinetRequest is the body of PUT /cabinet/{id}.
type UpdateCabinetRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Materials   []string `json:"materials"`
}

// Roots handles GET /cabinet.
func (h *CabinetHandler) Roots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	cabinets, err := h.cabinets.Roots(ctx, owner)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list cabinets")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCabinetResponses(cabinets))
}

// Get handles GET /cabinet/{id}.
func (h *CabinetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	cabinet, err := h.cabinets.Get(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load cabinet")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCabinetResponse(cabinet))
}

// Children handles GET /cabinet/{id}/children.
func (h *CabinetHandler) Children(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	children, err := h.cabinets.Children(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list cabinets")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCabinetResponses(children))
}

// Materials handles GET /cabinet/{id}/materials.
func (h *CabinetHandler) Materials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	materials, err := h.cabinets.Materials(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list materials")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toMaterialResponses(materials))
}

// Create handles POST /cabinet.
func (h *CabinetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req CreateCabinetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cabinet, err := h.cabinets.Create(ctx, owner, service.CabinetInput{
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create cabinet")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCabinetResponse(cabinet))
}

// Update handles PUT /cabinet/{id}.
func (h *CabinetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req UpdateCabinetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cabinet, err := h.cabinets.Update(ctx, owner, chi.URLParam(r, "id"), service.CabinetUpdate{
		Name:        req.Name,
		Description: req.Description,
		Materials:   req.Materials,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update cabinet")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCabinetResponse(cabinet))
}

// Delete handles DELETE /cabinet/{id}.
func (h *CabinetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	cabinet, err := h.cabinets.Delete(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete cabinet")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCabinetResponse(cabinet))
}
