package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lessonarchiver/internal/service"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation error",
			err:        &service.ValidationError{Field: "title", Message: "cannot be empty"},
			wantStatus: http.StatusBadRequest,
			wantBody:   "validation error on field title: cannot be empty",
		},
		{
			name:       "expired grant",
			err:        service.ErrGrantExpired,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Grant is expired",
		},
		{
			name:       "bare invalid input",
			err:        fmt.Errorf("parse: %w", service.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid input",
		},
		{
			name:       "typed not found",
			err:        fmt.Errorf("load: %w", &service.NotFoundError{Resource: "File"}),
			wantStatus: http.StatusNotFound,
			wantBody:   "File not found",
		},
		{
			name:       "bare not found",
			err:        service.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   "Not found",
		},
		{
			name:       "typed conflict",
			err:        &service.ConflictError{Resource: "Tag"},
			wantStatus: http.StatusConflict,
			wantBody:   "Tag already exists",
		},
		{
			name:       "unauthorized",
			err:        fmt.Errorf("%w: token expired", service.ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantBody:   "unauthorized: token expired",
		},
		{
			name:       "external service",
			err:        fmt.Errorf("search failed: %w", service.ErrExternalService),
			wantStatus: http.StatusBadGateway,
			wantBody:   "External service error",
		},
		{
			name:       "anything else",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to do it",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleServiceError(context.Background(), w, tt.err, "Failed to do it")
			if w.Code != tt.wantStatus {
				t.Errorf("handleServiceError() status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := bodyText(w); got != tt.wantBody {
				t.Errorf("handleServiceError() body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     service.Page
		wantBody string
	}{
		{name: "valid", query: "limit=20&offset=0", want: service.Page{Limit: 20}},
		{name: "zero limit", query: "limit=0&offset=7", want: service.Page{Limit: 0, Offset: 7}},
		{name: "limit too large", query: "limit=21&offset=0", wantBody: "Missing or invalid limit"},
		{name: "negative limit", query: "limit=-1&offset=0", wantBody: "Missing or invalid limit"},
		{name: "missing limit", query: "offset=0", wantBody: "Missing or invalid limit"},
		{name: "missing offset", query: "limit=5", wantBody: "Missing or invalid offset"},
		{name: "negative offset", query: "limit=5&offset=-3", wantBody: "Missing or invalid offset"},
		{name: "malformed offset", query: "limit=5&offset=abc", wantBody: "Missing or invalid offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/files?"+tt.query, nil)
			got, ok := parsePage(w, r)
			if tt.wantBody != "" {
				if ok || w.Code != http.StatusBadRequest || bodyText(w) != tt.wantBody {
					t.Errorf("parsePage() = %v, %d %q, want 400 %q", ok, w.Code, bodyText(w), tt.wantBody)
				}
				return
			}
			if !ok {
				t.Fatalf("parsePage() rejected %q: %s", tt.query, bodyText(w))
			}
			if got != tt.want {
				t.Errorf("parsePage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsePinned(t *testing.T) {
	tests := []struct {
		query  string
		want   *bool
		wantOK bool
	}{
		{query: "", want: nil, wantOK: true},
		{query: "pinned=true", want: ptr(true), wantOK: true},
		{query: "pinned=false", want: ptr(false), wantOK: true},
		{query: "pinned=maybe", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/materials?"+tt.query, nil)
			got, ok := parsePinned(w, r)
			if ok != tt.wantOK {
				t.Fatalf("parsePinned() ok = %v, want %v", ok, tt.wantOK)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("parsePinned() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		wantOK bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi", wantOK: true},
		{header: "bearer  abc", want: "abc", wantOK: true},
		{header: "Basic dXNlcjpwYXNz", wantOK: false},
		{header: "Bearer ", wantOK: false},
		{header: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(r)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("BearerToken() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
