package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/service"
)

// AuthHandler handles login, token renewal and the current principal.
type AuthHandler struct {
	auth service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginResponse carries the URL that starts a login.
type LoginResponse struct {
	URL string `json:"url"`
}

// TokenResponse carries a renewed token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Login handles GET /auth/{provider}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	url, err := h.auth.LoginURL(ctx, chi.URLParam(r, "provider"), r.URL.Query().Get("env"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to start login")
		return
	}
	writeJSON(ctx, w, http.StatusOK, LoginResponse{URL: url})
}

// Renew handles GET /auth/renew.
func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, ok := BearerToken(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	renewed, err := h.auth.Renew(ctx, token)
	if err != nil {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "token renewal refused", "error", err)
		handleServiceError(ctx, w, err, "Failed to renew token")
		return
	}
	writeJSON(ctx, w, http.StatusOK, TokenResponse{Token: renewed})
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, p.Claims)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
