package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/service"
)

// writeJSON writes v as a JSON response with status.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// decodeJSON reads the request body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		contextutil.LoggerFromContext(r.Context()).WarnContext(r.Context(), "invalid request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// ownerID returns the authenticated user's id, answering 401 when the request carries none.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return p.UserID, true
}

// parsePage reads the required limit and offset query parameters.
func parsePage(w http.ResponseWriter, r *http.Request) (service.Page, bool) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 0 || limit > service.MaxPageSize {
		http.Error(w, "Missing or invalid limit", http.StatusBadRequest)
		return service.Page{}, false
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		http.Error(w, "Missing or invalid offset", http.StatusBadRequest)
		return service.Page{}, false
	}
	return service.Page{Limit: limit, Offset: offset}, true
}

// parsePinned reads the optional pinned filter.
func parsePinned(w http.ResponseWriter, r *http.Request) (*bool, bool) {
	raw := r.URL.Query().Get("pinned")
	if raw == "" {
		return nil, true
	}
	pinned, err := strconv.ParseBool(raw)
	if err != nil {
		http.Error(w, "Invalid pinned", http.StatusBadRequest)
		return nil, false
	}
	return &pinned, true
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		conflictErr   *service.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "validation error", "error", err)
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrGrantExpired):
		http.Error(w, "Grant is expired", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid input", "error", err)
		http.Error(w, "Invalid input", http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		http.Error(w, notFoundErr.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.As(err, &conflictErr):
		http.Error(w, conflictErr.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrConflict):
		http.Error(w, "Conflict", http.StatusConflict)
	case errors.Is(err, service.ErrUnauthorized):
		logger.InfoContext(ctx, "unauthorized", "error", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrExternalService):
		logger.ErrorContext(ctx, "external service error", "error", err)
		http.Error(w, "External service error", http.StatusBadGateway)
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		http.Error(w, defaultMsg, http.StatusInternalServerError)
	}
}
