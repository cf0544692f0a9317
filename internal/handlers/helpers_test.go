package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"lessonarchiver/internal/service"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const testOwner = "0b7f3d7e-4f53-4c39-9f0e-6a4c4c1d2a10"

// serve routes one request through a chi router holding only h at pattern.
// The request is authenticated as owner unless owner is empty.
func serve(t *testing.T, h http.HandlerFunc, method, pattern, target string, body io.Reader, owner string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, body)
	if owner != "" {
		req = req.WithContext(WithPrincipal(req.Context(), service.Principal{UserID: owner}))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func bodyText(w *httptest.ResponseRecorder) string {
	return strings.TrimSpace(w.Body.String())
}
